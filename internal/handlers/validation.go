package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/masterdash/masterdash/pkg/errors"
	"github.com/masterdash/masterdash/pkg/response"
	"github.com/masterdash/masterdash/pkg/validator"
)

// bindAndValidate decodes the JSON body into target and runs struct
// validation, writing the error response itself on failure.
func bindAndValidate(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		response.Error(c, appErrors.NewBadRequest("Invalid request payload"))
		return false
	}

	if err := validator.ValidateStruct(target); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return "Invalid request payload"
	}

	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		switch f.Tag {
		case "required":
			parts = append(parts, f.Field+" is required")
		case "email":
			parts = append(parts, f.Field+" must be a valid email")
		case "min":
			parts = append(parts, f.Field+" must be at least "+f.Param+" characters")
		case "max":
			parts = append(parts, f.Field+" must be at most "+f.Param+" characters")
		case "oneof":
			parts = append(parts, f.Field+" must be one of: "+f.Param)
		default:
			parts = append(parts, f.Field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
