package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// QuoteLine is one priced cart entry.
type QuoteLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// Totals holds the monetary outcome of pricing a cart. Values are exact;
// rounding happens only when presenting or persisting them.
type Totals struct {
	Subtotal        decimal.Decimal `json:"sub_total_amount"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total_amount"`
	CouponCode      string          `json:"coupon_code"`
}

// Quote is a priced cart.
type Quote struct {
	Lines  []QuoteLine `json:"lines"`
	Totals Totals      `json:"totals"`
}

// Subtotal sums unit price times quantity over the lines.
func Subtotal(lines []QuoteLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	return sum
}

// ApplyDiscount derives the totals for a subtotal and an optional coupon.
func ApplyDiscount(subtotal decimal.Decimal, coupon *AppliedCoupon) Totals {
	totals := Totals{
		Subtotal:        subtotal,
		DiscountPercent: decimal.Zero,
		DiscountAmount:  decimal.Zero,
		Total:           subtotal,
	}
	if coupon == nil {
		return totals
	}
	discount := subtotal.Mul(coupon.Percent).Div(hundred)
	totals.CouponCode = coupon.Code
	totals.DiscountPercent = coupon.Percent
	totals.DiscountAmount = discount
	totals.Total = subtotal.Sub(discount)
	return totals
}

// PriceCart prices every cart line against the given products (live prices).
// Lines are ordered by product id so the result is deterministic.
func PriceCart(cart Cart, products map[int64]Product, coupon *AppliedCoupon) (Quote, error) {
	ids := make([]int64, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines := make([]QuoteLine, 0, len(ids))
	for _, id := range ids {
		product, ok := products[id]
		if !ok {
			return Quote{}, Errorf(ErrProductNotFound, "product %d not found", id)
		}
		qty := cart[id]
		lines = append(lines, QuoteLine{
			ProductID: id,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  qty,
			Amount:    product.Price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	return Quote{
		Lines:  lines,
		Totals: ApplyDiscount(Subtotal(lines), coupon),
	}, nil
}
