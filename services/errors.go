package services

import (
	"errors"
	"fmt"
)

// Not found.
var (
	ErrTableNotFound           = errors.New("table not found")
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrCategoryNotFound        = errors.New("category not found")
	ErrStaffNotFound           = errors.New("staff member not found")
	ErrExpenseNotFound         = errors.New("expense not found")
	ErrExpenseCategoryNotFound = errors.New("expense category not found")
	ErrFeedbackNotFound        = errors.New("feedback not found")
	ErrFeedbackTypeNotFound    = errors.New("feedback type not found")
	ErrPaymentMethodNotFound   = errors.New("payment method not found")
)

// Business rule violations.
var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrProductInactive    = errors.New("product is not on sale")
	ErrOrderClosed        = errors.New("order is already closed")
	ErrInvalidTransition  = errors.New("order status change not allowed")
	ErrTableOccupied      = errors.New("table is occupied")
	ErrTableReserved      = errors.New("table is reserved")
	ErrTableHasOpenOrder  = errors.New("table has an open order")
	ErrProtectedCategory  = errors.New("the Other category cannot be deleted or emptied")
	ErrCategoryEmpty      = errors.New("category has no products to move")
	ErrOtherNameClash     = errors.New("the Other category already has products with these names")
	ErrDuplicateName      = errors.New("name is already in use")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrSelfDelete         = errors.New("you cannot delete your own account")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is not active")
)

// ValidationError is an input that failed a range or format rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrTableNotFound, ErrOrderNotFound, ErrProductNotFound, ErrCategoryNotFound,
		ErrStaffNotFound, ErrExpenseNotFound, ErrExpenseCategoryNotFound,
		ErrFeedbackNotFound, ErrFeedbackTypeNotFound, ErrPaymentMethodNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err is a business rule rejection.
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrOutOfStock, ErrProductInactive, ErrOrderClosed, ErrInvalidTransition,
		ErrTableOccupied, ErrTableReserved, ErrTableHasOpenOrder, ErrProtectedCategory,
		ErrCategoryEmpty, ErrOtherNameClash, ErrDuplicateName, ErrUsernameTaken, ErrSelfDelete,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
