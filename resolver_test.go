package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheetsNamed(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestResolver_ExpandRowMajor(t *testing.T) {
	r := Resolver{HasSheet: sheetsNamed("Sheet1")}
	ref, err := ParseReference("A1:B2")
	require.NoError(t, err)

	keys, err := r.Expand(ref, "Sheet1")
	require.NoError(t, err)

	var names []string
	for _, k := range keys {
		names = append(names, k.String())
	}
	assert.Equal(t, []string{"Sheet1!A1", "Sheet1!B1", "Sheet1!A2", "Sheet1!B2"}, names)
}

func TestResolver_CrossSheet(t *testing.T) {
	r := Resolver{HasSheet: sheetsNamed("Sales", "Summary")}
	ref, err := ParseReference("Sales!D4")
	require.NoError(t, err)

	keys, err := r.Expand(ref, "Summary")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, CellKey{Sheet: "Sales", Cell: MustCellID("D4")}, keys[0])
}

func TestResolver_MissingSheet(t *testing.T) {
	r := Resolver{HasSheet: sheetsNamed("Summary")}
	ref, err := ParseReference("Sales!D4")
	require.NoError(t, err)

	_, err = r.Expand(ref, "Summary")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestResolver_RangeTooLarge(t *testing.T) {
	r := Resolver{HasSheet: sheetsNamed("Sheet1"), MaxCells: 10}
	ref, err := ParseReference("A1:C4")
	require.NoError(t, err)

	_, err = r.Expand(ref, "Sheet1")
	assert.ErrorIs(t, err, errRangeTooLarge)

	ref, err = ParseReference("A1:B5")
	require.NoError(t, err)
	keys, err := r.Expand(ref, "Sheet1")
	require.NoError(t, err)
	assert.Len(t, keys, 10)
}

func TestResolver_SelfReferenceIsLegal(t *testing.T) {
	r := Resolver{HasSheet: sheetsNamed("Sheet1")}
	ref, err := ParseReference("A1")
	require.NoError(t, err)

	keys, err := r.Expand(ref, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []CellKey{{Sheet: "Sheet1", Cell: MustCellID("A1")}}, keys)
}
