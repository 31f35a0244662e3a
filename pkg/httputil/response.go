package httputil

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/docbook-api/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all API responses
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    *Pagination       `json:"meta,omitempty"`
}

// Pagination represents pagination metadata
type Pagination struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

func NewPagination(page, perPage, total int) *Pagination {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}
	return &Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
}

// RespondWithSuccess sends a 200 success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	RespondWithStatus(c, http.StatusOK, data)
}

func RespondWithStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: StatusSuccess,
		Data:   data,
	})
}

func RespondWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Status:  StatusSuccess,
		Message: message,
	})
}

// RespondWithPagination sends a paginated response
func RespondWithPagination(c *gin.Context, data interface{}, page, perPage, total int) {
	c.JSON(http.StatusOK, Response{
		Status: StatusSuccess,
		Data:   data,
		Meta:   NewPagination(page, perPage, total),
	})
}

// RespondWithError maps err onto the envelope. Anything that is not an AppError becomes a 500
// with a generic message; the cause is logged and attached to the gin context.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}

	status := appErr.Kind.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(status, Response{
		Status:  StatusError,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

// RespondWithStatusError writes err with a status outside the error taxonomy, such as 413 or 429.
func RespondWithStatusError(c *gin.Context, status int, err error) {
	_ = c.Error(err)

	message := http.StatusText(status)
	var fields map[string]string
	if appErr, ok := errors.As(err); ok {
		message = appErr.Message
		fields = appErr.Fields
	}
	c.AbortWithStatusJSON(status, Response{
		Status:  StatusError,
		Message: message,
		Errors:  fields,
	})
}

// BindError converts a gin binding failure into a validation AppError.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			name := fieldName(fe)
			if _, exists := fields[name]; !exists {
				fields[name] = fieldMessage(name, fe)
			}
		}
		return errors.Validation("the given data was invalid", fields)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.As(err, &syntaxErr), stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.Validation("malformed request body", nil)
	case stderrors.As(err, &typeErr):
		return errors.FieldError(typeErr.Field, fmt.Sprintf("%s has an invalid type", typeErr.Field))
	}

	return errors.Validation(err.Error(), nil)
}

// fieldName drops the root struct from the namespace so nested fields read availabilities[0].to.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s may not be greater than %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s may not be greater than %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return fmt.Sprintf("%s confirmation does not match", name)
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", name, strings.ToLower(fe.Param()))
	case "hhmm":
		return fmt.Sprintf("%s must be a time in HH:MM format", name)
	case "ymd":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", name)
	case "dive":
		return fmt.Sprintf("%s is invalid", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
