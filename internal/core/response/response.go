package response

import (
	"errors"
	"net/http"
	"strconv"

	custom_error "siap/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Error writes err as {"error", "details"} with the status its type maps to.
func Error(c *gin.Context, message string, err error) {
	c.JSON(StatusFor(err), gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func StatusFor(err error) int {
	switch {
	case custom_error.IsValidation(err):
		return http.StatusBadRequest
	case custom_error.IsUnauthorized(err):
		return http.StatusForbidden
	case custom_error.IsNotFound(err):
		return http.StatusNotFound
	case custom_error.IsNoApproverAvailable(err), custom_error.IsUniqueViolation(err), isForeignKey(err):
		return http.StatusConflict
	case custom_error.IsInvalidTransition(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isForeignKey(err error) bool {
	var target *custom_error.ForeignKeyViolationError
	return errors.As(err, &target)
}

// ParamID reads a numeric path parameter, writing a 400 when it is malformed.
func ParamID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "details": c.Param(name)})
		return 0, false
	}
	return id, true
}

// QueryInt returns the integer query parameter or fallback when absent or malformed.
func QueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// QueryIntPtr returns nil when the parameter is absent or malformed.
func QueryIntPtr(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}
