package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct(t *testing.T) {
	type request struct {
		Code     string `json:"code" validate:"required,max=5"`
		Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
		Parent   int    `json:"parent_id" validate:"gte=0"`
		Internal string `json:"-" validate:"max=1"`
	}

	assert.Empty(t, ValidateStruct(request{Code: "CC001", Currency: "VND"}))

	errs := ValidateStruct(request{Code: "", Currency: "VN1", Parent: -1})
	assert.ElementsMatch(t, []string{
		"code is required",
		"currency has an invalid format",
		"parent_id must be greater than or equal to 0",
	}, errs)

	errs = ValidateStruct(request{Code: "TOO-LONG"})
	assert.Equal(t, []string{"code cannot exceed 5 characters"}, errs)
}
