package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosslink/internal/linkage"
)

const sampleLinkages = `
linkage: overview: {
	kind: "filter"
	members: ["revenue", "orders"]
}

linkage: drilldown: {
	kind: "time_range"
	members: ["orders", "order_detail", "shipments"]
	metadata: owner: "dash-team"
}
`

func TestCompileMultipleLinkages(t *testing.T) {
	defs, err := Compile([]byte(sampleLinkages), "linkages.cue")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	// Sorted by name for stable group creation order.
	assert.Equal(t, "drilldown", defs[0].Name)
	assert.Equal(t, linkage.KindTimeRange, defs[0].Kind)
	assert.Equal(t, "overview", defs[1].Name)
	assert.Equal(t, linkage.KindFilter, defs[1].Kind)
}

func TestCompileRejectsInvalidDeclaration(t *testing.T) {
	src := `
linkage: solo: {
	kind: "zoom"
	members: ["only-one"]
}
`
	_, err := Compile([]byte(src), "bad.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "solo")
	assert.Contains(t, err.Error(), ErrMemberCount)
}

func TestCompileNoLinkages(t *testing.T) {
	_, err := Compile([]byte(`other: {}`), "empty.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no linkage declarations")
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile([]byte(`linkage: { kind:`), "broken.cue")
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkages.cue")
	require.NoError(t, os.WriteFile(path, []byte(sampleLinkages), 0o644))

	defs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}
