package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Zachkp/portfolio/internal/domain"
)

// fieldError is a request field that failed validation after binding.
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string { return e.Field + ": " + e.Message }

// respondError maps err onto a status code and writes {"error": ...}.
func (s *Server) respondError(c *gin.Context, err error) {
	var fe *fieldError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{fe.Field: fe.Message}})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON decodes the body into dst. On failure it writes a 400 with the
// offending fields and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err, dst))
		return false
	}
	return true
}

// bindingErrors converts a binding error into the response body, keyed by
// the json name of each invalid field.
func bindingErrors(err error, dst any) gin.H {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		errs := make(map[string]string, len(ve))
		typ := reflect.TypeOf(dst)
		if typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		for _, fe := range ve {
			errs[jsonName(typ, fe.StructField())] = validationMessage(fe)
		}
		return gin.H{"errors": errs}
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return gin.H{"errors": gin.H{ute.Field: "must be a " + ute.Type.String()}}
	}
	return gin.H{"error": "invalid request body"}
}

func jsonName(typ reflect.Type, structField string) string {
	field, ok := typ.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	name := strings.Split(field.Tag.Get("json"), ",")[0]
	if name == "" || name == "-" {
		return strings.ToLower(structField)
	}
	return name
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid id"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}

// queryInt reads a non-negative integer query parameter, falling back to def.
// Values above ceiling are clamped.
func queryInt(c *gin.Context, key string, def, ceiling int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return min(v, ceiling)
}
