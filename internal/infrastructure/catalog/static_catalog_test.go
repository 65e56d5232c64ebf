package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/pkg/constants"
	"github.com/turtacn/pnet/pkg/errors"
)

func TestLoadStaticCatalog_Default(t *testing.T) {
	c, err := LoadStaticCatalog("")
	require.NoError(t, err)

	ctl, err := c.Get(context.Background(), "ac-3")
	require.NoError(t, err)
	assert.Equal(t, "AC-3 Access Enforcement", ctl.Name)
	assert.Equal(t, constants.FeatureHasPublicExploit, ctl.DriverFeature)
	assert.Equal(t, 0.0, ctl.SafeValue)

	_, err = c.Get(context.Background(), "SC-7")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeNotFound))
}

func TestLoadStaticCatalog_File(t *testing.T) {
	body := `
controls:
  - id: SC-7
    name: SC-7 Boundary Protection
    driver_feature: attack_vector
    safe_value: 1
  - id: AC-3
    name: AC-3 Access Enforcement
    driver_feature: has_public_exploit
    safe_value: 0
`
	path := filepath.Join(t.TempDir(), "controls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	c, err := LoadStaticCatalog(path)
	require.NoError(t, err)

	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "AC-3", list[0].ID)
	assert.Equal(t, "SC-7", list[1].ID)
	assert.Equal(t, 1.0, list[1].SafeValue)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	var roundTrip catalogFile
	require.NoError(t, yaml.Unmarshal(out, &roundTrip))
	assert.Equal(t, list, roundTrip.Controls)
}

func TestNewStaticCatalog_Invalid(t *testing.T) {
	testCases := []struct {
		name     string
		controls []models.Control
	}{
		{"empty", nil},
		{"missing id", []models.Control{{DriverFeature: "x"}}},
		{"missing driver", []models.Control{{ID: "AC-3"}}},
		{"duplicate id", []models.Control{{ID: "AC-3", DriverFeature: "x"}, {ID: "ac-3", DriverFeature: "y"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStaticCatalog(tc.controls)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))
		})
	}
}

func TestLoadStaticCatalog_BadFile(t *testing.T) {
	_, err := LoadStaticCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("controls: [::"), 0o600))
	_, err = LoadStaticCatalog(path)
	assert.True(t, errors.IsCode(err, constants.ErrCodeConfiguration))
}
