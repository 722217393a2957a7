package confkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("/base", "sub.yaml"), ResolvePath("/base", "sub.yaml"))
	assert.Equal(t, "/abs/sub.yaml", ResolvePath("/base", "/abs/sub.yaml"))

	t.Setenv("CONF_DIR", "/from-env")
	assert.Equal(t, "/from-env/sub.yaml", ResolvePath("/base", "$CONF_DIR/sub.yaml"))
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, "/etc/betoken", BaseDir("/etc/betoken/main.yaml"))
}

type sectionPayload struct {
	Name string
}

func TestSectionHydrate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "section.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Name: tokens\n"), 0o644))

	s := Section[sectionPayload]{File: "section.yaml"}
	err := s.Hydrate(dir, func(p string) (*sectionPayload, error) {
		return LoadFile[sectionPayload](p, false)
	})
	require.NoError(t, err)
	require.NotNil(t, s.Value)
	assert.Equal(t, "tokens", s.Value.Name)
	assert.Equal(t, path, s.File)
}

func TestSectionHydrateEmptyFile(t *testing.T) {
	s := Section[sectionPayload]{}
	require.NoError(t, s.Hydrate("/base", func(string) (*sectionPayload, error) {
		t.Fatal("loader must not run for an empty section")
		return nil, nil
	}))
	assert.Nil(t, s.Value)
}
