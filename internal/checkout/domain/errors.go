package domain

import (
	"errors"
	"fmt"
)

// Error kinds returned by checkout operations. Callers match them with errors.Is;
// anything that does not match one of these is an internal failure.
var (
	ErrValidation                = errors.New("validation error")
	ErrOutOfStock                = errors.New("out of stock")
	ErrQuantityLimitExceeded     = errors.New("quantity limit exceeded")
	ErrInvalidCoupon             = errors.New("invalid coupon")
	ErrProductNotFound           = errors.New("product not found")
	ErrAddressNotFound           = errors.New("address not found")
	ErrCartItemNotFound          = errors.New("product not in cart")
	ErrWishlistItemNotFound      = errors.New("product not in wishlist")
	ErrEmptyCart                 = errors.New("cart is empty")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrOrderNotFound             = errors.New("order not found")
	ErrForbidden                 = errors.New("forbidden")
)

// Error carries a user-facing message for one of the error kinds above.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}
