package extract_test

import (
	"testing"

	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArray_BracketDepthSurvivesNestedObjects(t *testing.T) {
	script := `var sspDataInfo = [{"id":"1","tags":["a","b"],"meta":{"x":[1,2]}},{"id":"2"}]; var other = [];`

	arr, ok := extract.ExtractJSONArray(script, "sspDataInfo")

	require.True(t, ok)
	assert.Equal(t, `[{"id":"1","tags":["a","b"],"meta":{"x":[1,2]}},{"id":"2"}]`, arr)
}

func TestExtractJSONArray_ColonAssignment(t *testing.T) {
	script := `{"sspDataInfo": [{"id":"7"}]}`

	arr, ok := extract.ExtractJSONArray(script, "sspDataInfo")

	require.True(t, ok)
	assert.Equal(t, `[{"id":"7"}]`, arr)
}

func TestExtractJSONArray_MissingKey(t *testing.T) {
	_, ok := extract.ExtractJSONArray(`var data = [1,2,3];`, "sspDataInfo")

	assert.False(t, ok)
}

func TestExtractJSONArray_UnbalancedBrackets(t *testing.T) {
	_, ok := extract.ExtractJSONArray(`sspDataInfo = [{"id":"1"`, "sspDataInfo")

	assert.False(t, ok)
}

func TestRepairJSON_StripsTrailingCommas(t *testing.T) {
	raw := `[{"id":"1","status":770060000,},]`

	assert.Equal(t, `[{"id":"1","status":770060000}]`, extract.RepairJSON(raw))
}

func TestDecodeLenientArray_StrictPathFirst(t *testing.T) {
	items, ok := extract.DecodeLenientArray(`[{"id":"1"},{"id":"2"}]`)

	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestDecodeLenientArray_RepairPathRecoversTrailingComma(t *testing.T) {
	items, ok := extract.DecodeLenientArray(`[{"id":"1"},{"id":"2"},]`)

	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestDecodeLenientArray_HopelessInputIsSkipped(t *testing.T) {
	_, ok := extract.DecodeLenientArray(`[{"id": }]`)

	assert.False(t, ok)
}
