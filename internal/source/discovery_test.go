package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"customers.csv":  "full_name\nRahul\n",
		"accounts.json":  `[{"id": 1}]`,
		"readme.txt":     "ignore me",
		"screenshot.png": "binary",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	d := NewDiscoverer([]string{dir, filepath.Join(dir, "does-not-exist")}, nil, "", nil)
	descs := d.Discover(context.Background())

	require.Len(t, descs, 2)
	assert.Equal(t, "accounts.json", descs[0].Name)
	assert.Equal(t, KindSemiStructuredFile, descs[0].Kind)
	assert.Equal(t, "customers.csv", descs[1].Name)
	assert.Equal(t, KindTabularFile, descs[1].Kind)
	assert.Equal(t, filepath.Join(dir, "customers.csv"), descs[1].Location)
}

func TestDiscoverDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}

	d := NewDiscoverer([]string{dir}, nil, "", nil)
	first := d.Discover(context.Background())
	second := d.Discover(context.Background())
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
}
