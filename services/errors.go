package services

import "errors"

// ErrorKind classifies service errors by how the caller should react to them
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a business error safe to show to API clients. Two errors are equal under
// errors.Is when their codes match, so handlers can compare against the named values below
// even when the message was customised.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message
func (e *Error) WithMessage(message string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: message}
}

// AsError extracts a service error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Validation errors
var (
	ErrValidation     = &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "Invalid request data"}
	ErrEmptyOrder     = &Error{Kind: KindValidation, Code: "EMPTY_ORDER", Message: "An order needs at least one item"}
	ErrInvalidItem    = &Error{Kind: KindValidation, Code: "INVALID_ITEM", Message: "Each item needs exactly one of product_id or custom_cake_id and a positive quantity"}
	ErrUnknownProduct = &Error{Kind: KindValidation, Code: "UNKNOWN_PRODUCT", Message: "Order references an unknown or unavailable product"}
	ErrUnknownCake    = &Error{Kind: KindValidation, Code: "UNKNOWN_CUSTOM_CAKE", Message: "Order references an unknown custom cake"}
	ErrInvalidStatus  = &Error{Kind: KindValidation, Code: "INVALID_STATUS", Message: "Unknown order status"}
	ErrInvalidRating  = &Error{Kind: KindValidation, Code: "INVALID_RATING", Message: "Rating must be between 1 and 5"}
	ErrEmptyMessage   = &Error{Kind: KindValidation, Code: "EMPTY_MESSAGE", Message: "Message text is required"}
	ErrInvalidBaker   = &Error{Kind: KindValidation, Code: "INVALID_BAKER", Message: "The selected user is not a baker of the required role"}
	ErrSelfMessage    = &Error{Kind: KindValidation, Code: "SELF_MESSAGE", Message: "You cannot send a message to yourself"}
	ErrInvalidImage   = &Error{Kind: KindValidation, Code: "INVALID_IMAGE", Message: "Invalid image file"}
)

// Authentication errors
var (
	ErrUnauthenticated    = &Error{Kind: KindAuthentication, Code: "UNAUTHORIZED", Message: "Authentication required"}
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
)

// Authorization errors
var (
	ErrForbidden      = &Error{Kind: KindAuthorization, Code: "FORBIDDEN", Message: "You do not have permission to perform this action"}
	ErrNotParticipant = &Error{Kind: KindAuthorization, Code: "NOT_PARTICIPANT", Message: "You are not a participant of this order"}
)

// Not found errors
var (
	ErrUserNotFound        = &Error{Kind: KindNotFound, Code: "USER_NOT_FOUND", Message: "User not found"}
	ErrProductNotFound     = &Error{Kind: KindNotFound, Code: "PRODUCT_NOT_FOUND", Message: "Product not found"}
	ErrOrderNotFound       = &Error{Kind: KindNotFound, Code: "ORDER_NOT_FOUND", Message: "Order not found"}
	ErrCustomCakeNotFound  = &Error{Kind: KindNotFound, Code: "CUSTOM_CAKE_NOT_FOUND", Message: "Custom cake not found"}
	ErrApplicationNotFound = &Error{Kind: KindNotFound, Code: "APPLICATION_NOT_FOUND", Message: "Application not found"}
	ErrTeamMemberNotFound  = &Error{Kind: KindNotFound, Code: "TEAM_MEMBER_NOT_FOUND", Message: "Junior baker is not in an active team"}
)

// Conflict errors
var (
	ErrEmailTaken           = &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "A user with this email or username already exists"}
	ErrInvalidTransition    = &Error{Kind: KindConflict, Code: "INVALID_TRANSITION", Message: "This status change is not allowed"}
	ErrOrderClosed          = &Error{Kind: KindConflict, Code: "ORDER_CLOSED", Message: "The order is already delivered or cancelled"}
	ErrDuplicateApplication = &Error{Kind: KindConflict, Code: "DUPLICATE_APPLICATION", Message: "You already have a pending application"}
	ErrAlreadyProcessed     = &Error{Kind: KindConflict, Code: "ALREADY_PROCESSED", Message: "The application has already been processed"}
	ErrApplicantRole        = &Error{Kind: KindConflict, Code: "APPLICANT_ROLE_CHANGED", Message: "The applicant's role no longer allows this promotion"}
	ErrInvalidState         = &Error{Kind: KindConflict, Code: "INVALID_STATE", Message: "Reviews can only be left by the customer after delivery"}
	ErrDuplicateReview      = &Error{Kind: KindConflict, Code: "DUPLICATE_REVIEW", Message: "This order has already been reviewed"}
)
