package worklauncher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultManifestMatchesOriginal(t *testing.T) {
	m := DefaultManifest()
	tmpl := m.Resolve("gravity_sim")

	assert.Equal(t, "raboshka_gravity_sim", tmpl.AppName("gravity_sim"))
	assert.Equal(t, "templates/raboshka/2.0/in", tmpl.WorkunitTemplate())
	assert.Equal(t, "templates/raboshka/2.0/out", tmpl.ResultTemplate())
}

func TestLoadManifestEmptyPathReturnsDefault(t *testing.T) {
	m, err := LoadManifest("")
	require.NoError(t, err)
	assert.Equal(t, DefaultManifest(), m)
}

func TestLoadManifestCustomFlavor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	contents := `
flavors:
  default:
    app_prefix: raboshka
    template_version: "2.0"
  seti:
    app_prefix: seti
    template_version: "3.1"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)

	seti := m.Resolve("seti")
	assert.Equal(t, "seti_seti", seti.AppName("seti"))
	assert.Equal(t, "templates/seti/3.1/in", seti.WorkunitTemplate())

	unknown := m.Resolve("unregistered")
	assert.Equal(t, "raboshka", unknown.AppPrefix)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest("/nonexistent/manifest.yaml")
	assert.Error(t, err)
}
