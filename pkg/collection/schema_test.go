package collection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		CollectionType: "repositories",
		Name:           "code",
		RootPath:       "/home/user/code",
		Categories:     []string{"dev_tools", "utilities_misc"},
		ExcludeHidden:  true,
		ScannerConfig:  map[string]any{},
		Schedule:       ScheduleConfig{Enabled: ScheduleEnabled{Bool: false}},
	}
}

func TestScheduleEnabledJSONRoundTripsBool(t *testing.T) {
	b, err := json.Marshal(ScheduleEnabled{Bool: true})
	require.NoError(t, err)
	assert.Equal(t, "true", string(b))

	var out ScheduleEnabled
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, out.Bool)
	assert.False(t, out.Organic)
}

func TestScheduleEnabledJSONRoundTripsOrganic(t *testing.T) {
	b, err := json.Marshal(ScheduleEnabled{Organic: true, Bool: true})
	require.NoError(t, err)
	assert.Equal(t, `"organic"`, string(b))

	var out ScheduleEnabled
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, out.Organic)
}

func TestValidateConfigAcceptsAWellFormedConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(validConfig()))
}

func TestValidateConfigAcceptsOrganicSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Schedule.Enabled = ScheduleEnabled{Organic: true, Bool: true}
	assert.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfigRejectsEmptyCategories(t *testing.T) {
	cfg := validConfig()
	cfg.Categories = nil

	err := ValidateConfig(cfg)
	require.Error(t, err)

	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.NotEmpty(t, schemaErr.Issues)
}

func TestValidateConfigRejectsMissingCollectionType(t *testing.T) {
	cfg := validConfig()
	cfg.CollectionType = ""

	assert.Error(t, ValidateConfig(cfg))
}
