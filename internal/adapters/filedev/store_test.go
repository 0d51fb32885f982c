package filedev_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/blueshift/internal/adapters/filedev"
	"go.trai.ch/blueshift/internal/core/domain"
)

func TestFileStore_SeedsInitialValues(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	dir := filepath.Join(t.TempDir(), "devices")
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp.yaml"), []byte("31\n"), domain.FilePerm))

	s, err := filedev.NewFileStore(cfg, dir)
	require.NoError(t, err)

	v, ok := s.Get(name("lamp"))
	require.True(t, ok)
	assert.Equal(t, false, v)

	v, ok = s.Get(name("temp"))
	require.True(t, ok)
	assert.Equal(t, 31, v, "existing files are kept")

	_, ok = s.Get(name("button"))
	assert.False(t, ok, "devices without an initial value have no file")
	assert.NoFileExists(t, s.Path(name("count")), "virtual devices are not stored")
}

func TestFileStore_Changed(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	s, err := filedev.NewFileStore(cfg, cfg.Driver.Dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(name("lamp"), map[string]any{"on": true}))
	v, changed, err := s.Changed(name("lamp"))
	require.NoError(t, err)
	assert.False(t, changed, "own writes are not changes")
	assert.Equal(t, map[string]any{"on": true}, v)

	require.NoError(t, os.WriteFile(s.Path(name("lamp")), []byte("on: false\n"), domain.FilePerm))
	v, changed, err = s.Changed(name("lamp"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, map[string]any{"on": false}, v)

	require.NoError(t, os.WriteFile(s.Path(name("button")), []byte("{"), domain.FilePerm))
	_, _, err = s.Changed(name("button"))
	require.ErrorContains(t, err, "failed to parse device file")

	require.NoError(t, os.WriteFile(s.Path(name("button")), []byte("\n"), domain.FilePerm))
	_, changed, err = s.Changed(name("button"))
	require.NoError(t, err)
	assert.False(t, changed, "empty files hold no value")
}
