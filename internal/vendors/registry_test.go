package vendors_test

import (
	"testing"

	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBySlug_KnownVendor(t *testing.T) {
	v, err := vendors.BySlug("trendmicro")

	require.NoError(t, err)
	assert.Equal(t, "Trend Micro", v.Name)
	assert.Equal(t, vendors.StrategyEmbeddedJSON, v.Strategy)
	assert.Len(t, v.Sites, 2)
}

func TestBySlug_IsCaseInsensitive(t *testing.T) {
	v, err := vendors.BySlug("  QuAlYs ")

	require.NoError(t, err)
	assert.Equal(t, "Qualys", v.Name)
}

func TestBySlug_UnknownVendorFails(t *testing.T) {
	_, err := vendors.BySlug("nonexistent")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vendor")
}

func TestAll_EveryVendorIsWellFormed(t *testing.T) {
	all := vendors.All()
	require.NotEmpty(t, all)

	seen := map[string]bool{}
	for _, v := range all {
		assert.NotEmpty(t, v.Slug)
		assert.NotEmpty(t, v.Name)
		assert.NotEmpty(t, v.Sources, "vendor %s has no sources", v.Slug)
		assert.False(t, seen[v.Slug], "duplicate slug %s", v.Slug)
		seen[v.Slug] = true

		if v.Strategy == vendors.StrategyEmbeddedJSON {
			assert.NotEmpty(t, v.EmbeddedArrayKey, "vendor %s needs an array key", v.Slug)
			assert.NotEmpty(t, v.Sites, "vendor %s needs sites", v.Slug)
		} else {
			assert.NotEmpty(t, v.PageURL, "vendor %s has no page URL", v.Slug)
		}
	}
}

func TestAll_ReturnsACopy(t *testing.T) {
	first := vendors.All()
	first[0].Name = "mutated"

	assert.NotEqual(t, "mutated", vendors.All()[0].Name)
}
