package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=10"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(sampleRequest{Email: "a@b.cl", Name: "Ana"}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(sampleRequest{Email: "not-an-email"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)

	fields := map[string]string{}
	for _, f := range failures {
		fields[f.Field] = f.Tag
	}
	require.Equal(t, "email", fields["email"])
	require.Equal(t, "required", fields["name"])
}

func TestValidationErrorsMessage(t *testing.T) {
	err := ValidationErrors{
		{Field: "name", Tag: "max", Param: "10"},
		{Field: "email", Tag: "required"},
	}
	require.Equal(t, "name failed on max=10; email failed on required", err.Error())
	require.Equal(t, "validation failed", ValidationErrors{}.Error())
}
