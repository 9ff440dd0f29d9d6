package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeEmptySearch      = "EMPTY_SEARCH"
	ErrCodeProductNotFound  = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound    = "ORDER_NOT_FOUND"
	ErrCodeLineItemNotFound = "LINE_ITEM_NOT_FOUND"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeSizeRequired     = "SIZE_REQUIRED"
	ErrCodeInvalidSize      = "INVALID_SIZE"
	ErrCodeNotInBag         = "NOT_IN_BAG"
	ErrCodeEmptyBag         = "EMPTY_BAG"
	ErrCodeInvalidBag       = "INVALID_BAG"
	ErrCodeOrderIntegrity   = "ORDER_INTEGRITY"
	ErrCodePaymentProvider  = "PAYMENT_PROVIDER_ERROR"
	ErrCodeInvalidWebhook   = "INVALID_WEBHOOK"
	ErrCodeReconciliation   = "RECONCILIATION_FAILED"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptySearch     = NewDomainError(ErrCodeEmptySearch, "You didn't enter any search criteria")
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrLineItemMissing = NewDomainError(ErrCodeLineItemNotFound, "Line item not found")
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between 1 and 99")
	ErrSizeRequired    = NewDomainError(ErrCodeSizeRequired, "Please select a size")
	ErrInvalidSize     = NewDomainError(ErrCodeInvalidSize, "Size must be one of XS, S, M, L or XL")
	ErrNotInBag        = NewDomainError(ErrCodeNotInBag, "Item is not in your bag")
	ErrEmptyBag        = NewDomainError(ErrCodeEmptyBag, "There's nothing in your bag at the moment")
	ErrInvalidBag      = NewDomainError(ErrCodeInvalidBag, "Bag contents could not be read")
	ErrOrderIntegrity  = NewDomainError(ErrCodeOrderIntegrity, "One of the products in your bag wasn't found in our database. Please call us for assistance!")
	ErrPaymentProvider = NewDomainError(ErrCodePaymentProvider, "Sorry, your payment cannot be processed right now. Please try again later.")
	ErrInvalidWebhook  = NewDomainError(ErrCodeInvalidWebhook, "Webhook payload or signature is invalid")
	ErrReconciliation  = NewDomainError(ErrCodeReconciliation, "Order could not be reconciled with the payment")
	ErrUnauthorised    = NewDomainError(ErrCodeUnauthorised, "You need to be signed in to do that")
)
