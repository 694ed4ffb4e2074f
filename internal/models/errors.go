package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes carried by AppError.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInternal             = "INTERNAL_ERROR"
	CodeNotAvailable         = "NOT_AVAILABLE"
	CodeDonationUnavailable  = "DONATION_UNAVAILABLE"
	CodeDuplicateRequest     = "DUPLICATE_REQUEST"
	CodeCapacityReached      = "CAPACITY_REACHED"
	CodeAlreadyProcessed     = "ALREADY_PROCESSED"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the AppError code of err, or CodeInternal for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

func NewNotAvailableError(donationID uint) *AppError {
	return &AppError{
		Code:    CodeNotAvailable,
		Message: fmt.Sprintf("Donation %d is not available for requests", donationID),
	}
}

func NewDonationUnavailableError(donationID uint, status DonationStatus) *AppError {
	return &AppError{
		Code:    CodeDonationUnavailable,
		Message: fmt.Sprintf("Donation %d is %s and no longer accepts decisions", donationID, status),
	}
}

func NewDuplicateRequestError(donationID uint) *AppError {
	return &AppError{
		Code:    CodeDuplicateRequest,
		Message: fmt.Sprintf("You have already requested donation %d", donationID),
	}
}

func NewCapacityReachedError(donationID uint, limit int) *AppError {
	return &AppError{
		Code:    CodeCapacityReached,
		Message: fmt.Sprintf("Donation %d reached its limit of %d requests and is now closed", donationID, limit),
	}
}

func NewAlreadyProcessedError(requestID uint, status RequestStatus) *AppError {
	return &AppError{
		Code:    CodeAlreadyProcessed,
		Message: fmt.Sprintf("Request %d is already %s", requestID, status),
	}
}

func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Cannot move from %s to %s", from, to),
	}
}

func NewInsufficientQuantityError(requested, remaining int) *AppError {
	return &AppError{
		Code:    CodeInsufficientQuantity,
		Message: fmt.Sprintf("Requested quantity %d exceeds remaining quantity %d", requested, remaining),
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// internal details stay in the logs
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
