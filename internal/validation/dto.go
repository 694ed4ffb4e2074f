package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"sharekindness/internal/models"

	"github.com/go-playground/validator/v10"
)

// SignupInput is the body of POST /api/auth/signup.
type SignupInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateDonationInput is the body of POST /api/donations.
type CreateDonationInput struct {
	ItemName    string `json:"item_name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"omitempty,donation_category"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=2048"`
}

// CreateRequestInput is the body of POST /api/requests.
type CreateRequestInput struct {
	DonationID        uint   `json:"donation_id" validate:"required"`
	RequestedQuantity int    `json:"requested_quantity" validate:"required,gt=0"`
	Comments          string `json:"comments" validate:"max=255"`
}

// DashboardDecisionInput is the body of POST /api/users/me/dashboard.
type DashboardDecisionInput struct {
	Action    string `json:"action" validate:"required,oneof=approve reject"`
	RequestID uint   `json:"request_id" validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("donation_category", func(fl validator.FieldLevel) bool {
			return models.DonationCategory(strings.ToUpper(fl.Field().String())).Valid()
		})
	})
	return validate
}

// Struct validates a tagged input struct and returns the first failure as
// a validation AppError naming the JSON field.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	return models.NewValidationError(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "donation_category":
		return fmt.Sprintf("%s is not a known category", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
