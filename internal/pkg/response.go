package pkg

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/posadmin/internal/domain"
)

// Response is the standard JSON envelope for API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// StatusResponse is the envelope of operations reporting an outcome, such as
// deletions and bulk actions.
type StatusResponse struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse is the JSON envelope for validation error responses.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Created sends a 201 JSON response with the given data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "success",
		Data:    data,
	})
}

// List sends a 200 JSON response for paginated list results.
func List(c *gin.Context, result any) {
	Success(c, result)
}

// Message sends a 200 JSON response carrying a status and message alongside data.
func Message(c *gin.Context, status, message string, data any) {
	c.JSON(http.StatusOK, StatusResponse{
		Code:    http.StatusOK,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// Failed sends a status message response with status "failed" and the given
// HTTP status.
func Failed(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, StatusResponse{
		Code:    httpStatus,
		Status:  "failed",
		Message: message,
	})
}

// Error sends a JSON error response. If err is a *domain.AppError, its code is
// mapped to the appropriate HTTP status; otherwise 500 is returned. Errors
// carrying domain.FieldErrors are rendered with per-field details.
func Error(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)

	var fields domain.FieldErrors
	if errors.As(err, &fields) {
		c.JSON(status, ValidationErrorResponse{
			Code:    status,
			Message: "validation error",
			Errors:  fields,
		})
		return
	}

	var appErr *domain.AppError
	msg := "internal error"
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}

	c.JSON(status, Response{
		Code:    status,
		Message: msg,
		Data:    nil,
	})
}

// Abort sends an error response through Error and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BindAndValidate binds the request body to obj and validates it.
// On failure it sends a 400 response and returns false. Field names in the
// response come from the JSON tags of obj.
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		validationError(c, err, obj)
		return false
	}
	return true
}

// FieldMessage renders a failed validator rule as a sentence.
func FieldMessage(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + param + " characters"
	case "max":
		return "Must be at most " + param + " characters"
	case "gte":
		return "Must be greater than or equal to " + param
	case "oneof":
		return "Must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "numeric", "number":
		return "Must be a number"
	}
	if param != "" {
		return tag + "=" + param
	}
	return tag
}

func validationError(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Message: "bad request",
			Data:    nil,
		})
		return
	}

	jsonTags := buildJSONTagMap(obj)

	fieldErrors := make(map[string]string, len(ve))
	for _, fe := range ve {
		name, ok := jsonTags[fe.StructField()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		fieldErrors[name] = FieldMessage(fe.Tag(), fe.Param())
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fieldErrors,
	})
}

// buildJSONTagMap returns a map from struct field name to its JSON tag name.
func buildJSONTagMap(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			m[f.Name] = name
		}
	}
	return m
}
