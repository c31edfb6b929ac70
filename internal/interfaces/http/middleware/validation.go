package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/payables/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's binding validator so that validation errors
// report the wire-level field name (json or form tag) instead of the Go
// struct field.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
		}
		return name
	})
}

// HandleValidationError writes the 400 response for a failed request binding.
// Field-level failures get a detail entry per field. Anything else, such as
// malformed JSON, gets a bare invalid-body response.
func HandleValidationError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body could not be parsed", requestID))
		return
	}

	c.JSON(http.StatusBadRequest, FormatValidationErrors(fieldErrors, requestID))
}

// FormatValidationErrors converts validator failures into the validation
// error envelope.
func FormatValidationErrors(fieldErrors validator.ValidationErrors, requestID string) dto.ValidationErrorResponse {
	details := make([]dto.ValidationDetail, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, dto.ValidationDetail{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Must be a valid UUID"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "min":
		if fe.Type().Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Type().Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be at least " + fe.Param()
	case "lt":
		return "Must be less than " + fe.Param()
	case "lte":
		return "Must be at most " + fe.Param()
	case "datetime":
		return "Must be a date in " + fe.Param() + " format"
	case "email":
		return "Must be a valid email address"
	case "numeric":
		return "Must be a number"
	default:
		return "Invalid value"
	}
}
