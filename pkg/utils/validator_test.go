package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

type sampleRequest struct {
	AssetName string `validate:"required"`
	ControlID string `validate:"required,control_id"`
	Rows      int    `validate:"min=0,max=10"`
}

func TestValidateStruct(t *testing.T) {
	testCases := []struct {
		name    string
		req     sampleRequest
		wantErr string
	}{
		{"valid", sampleRequest{AssetName: "windows", ControlID: "AC-3"}, ""},
		{"enhancement id", sampleRequest{AssetName: "windows", ControlID: "SC-7(3)"}, ""},
		{"missing asset", sampleRequest{ControlID: "AC-3"}, "asset_name is required"},
		{"bad control", sampleRequest{AssetName: "x", ControlID: "access"}, "control_id must look like a control id"},
		{"too many rows", sampleRequest{AssetName: "x", ControlID: "AC-3", Rows: 11}, "rows must be at most 10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStruct(&tc.req)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidRequest))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "asset_name", ToSnakeCase("AssetName"))
	assert.Equal(t, "control_id", ToSnakeCase("ControlID"))
	assert.Equal(t, "rows", ToSnakeCase("Rows"))
}

func TestParseAssignment(t *testing.T) {
	name, value, err := ParseAssignment(" base_score = 9.8 ")
	require.NoError(t, err)
	assert.Equal(t, "base_score", name)
	assert.Equal(t, "9.8", value)

	for _, bad := range []string{"base_score", "=1", ""} {
		_, _, err := ParseAssignment(bad)
		assert.True(t, errors.IsCode(err, constants.ErrCodeInvalidRequest), bad)
	}
}
