package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/validator"
)

// bindAndValidate decodes the JSON body into input and runs struct validation.
// On failure it writes the error response and reports false.
func bindAndValidate(c *gin.Context, input interface{}) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		response.Error(c, apperrors.NewBadRequest("request body must be valid JSON"))
		return false
	}
	if err := validator.ValidateStruct(input); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return false
	}
	return true
}

// parseIntQuery reads an integer query parameter, falling back when absent or
// unparsable.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// parseFloatQuery reads a float query parameter, falling back when absent or
// unparsable.
func parseFloatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
