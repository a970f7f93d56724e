package domain

// MaxQuantityPerProduct caps how many units of a single product one cart may hold.
const MaxQuantityPerProduct = 10

// Direction selects how UpdateQuantity moves a cart line.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// ParseDirection accepts both the API names and the legacy form values.
func ParseDirection(value string) (Direction, error) {
	switch value {
	case "increase", "cart_quantity_up":
		return DirectionIncrease, nil
	case "decrease", "cart_quantity_down":
		return DirectionDecrease, nil
	default:
		return "", Errorf(ErrValidation, "operation must be increase or decrease")
	}
}

// Cart maps product id to desired quantity.
type Cart map[int64]int

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, qty := range c {
		out[id] = qty
	}
	return out
}

// ItemCount is the total number of units across all lines.
func (c Cart) ItemCount() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Add puts quantity more units of product into the cart.
func (c Cart) Add(product Product, quantity int) error {
	if quantity <= 0 {
		return Errorf(ErrValidation, "quantity is required")
	}
	if !product.Active {
		return Errorf(ErrProductNotFound, "product %d not found", product.ID)
	}
	next := c[product.ID] + quantity
	if err := checkCaps(product, c[product.ID], next); err != nil {
		return err
	}
	c[product.ID] = next
	return nil
}

// UpdateQuantity moves an existing line by delta in the given direction.
// A line can never be decreased below one unit; use Remove for that.
func (c Cart) UpdateQuantity(product Product, delta int, direction Direction) error {
	if delta <= 0 {
		return Errorf(ErrValidation, "quantity must be positive")
	}
	current := c[product.ID]

	switch direction {
	case DirectionDecrease:
		if current-delta < 1 {
			return Errorf(ErrValidation, "minimum quantity is 1")
		}
		c[product.ID] = current - delta
		return nil
	case DirectionIncrease:
		if !product.Active {
			return Errorf(ErrProductNotFound, "product %d not found", product.ID)
		}
		next := current + delta
		if err := checkCaps(product, current, next); err != nil {
			return err
		}
		c[product.ID] = next
		return nil
	default:
		return Errorf(ErrValidation, "operation must be increase or decrease")
	}
}

// Remove drops a line from the cart.
func (c Cart) Remove(productID int64) error {
	if _, ok := c[productID]; !ok {
		return Errorf(ErrCartItemNotFound, "product %d is not in the cart", productID)
	}
	delete(c, productID)
	return nil
}

func checkCaps(product Product, current, next int) error {
	if next > MaxQuantityPerProduct {
		remaining := MaxQuantityPerProduct - current
		if remaining > 0 {
			return Errorf(ErrQuantityLimitExceeded, "you can only add %d more of this product to your cart", remaining)
		}
		return Errorf(ErrQuantityLimitExceeded, "you cannot purchase more than %d of this product", MaxQuantityPerProduct)
	}
	if next > product.Stock {
		return Errorf(ErrOutOfStock, "only %d of %s in stock", product.Stock, product.Name)
	}
	return nil
}
