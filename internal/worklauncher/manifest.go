package worklauncher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FlavorTemplate names the BOINC app-name prefix and template version a
// flavor maps to, generalizing the original's hardcoded
// `raboshka_<flavor>` + `templates/raboshka/2.0/{in,out}`.
type FlavorTemplate struct {
	AppPrefix       string `yaml:"app_prefix"`
	TemplateVersion string `yaml:"template_version"`
}

// Manifest maps a flavor tag to its FlavorTemplate. "default" is
// consulted when a flavor has no dedicated entry.
type Manifest struct {
	Flavors map[string]FlavorTemplate `yaml:"flavors"`
}

const defaultFlavorKey = "default"

// DefaultManifest reproduces the original's hardcoded values exactly,
// used when no manifest file is configured.
func DefaultManifest() *Manifest {
	return &Manifest{
		Flavors: map[string]FlavorTemplate{
			defaultFlavorKey: {
				AppPrefix:       "raboshka",
				TemplateVersion: "2.0",
			},
		},
	}
}

// LoadManifest reads a YAML flavor manifest from path. An empty path
// returns DefaultManifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flavor manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse flavor manifest %s: %w", path, err)
	}
	if _, ok := m.Flavors[defaultFlavorKey]; !ok {
		m.Flavors[defaultFlavorKey] = DefaultManifest().Flavors[defaultFlavorKey]
	}
	return &m, nil
}

// Resolve returns the FlavorTemplate registered for flavor, falling
// back to the "default" entry when flavor has no dedicated one.
func (m *Manifest) Resolve(flavor string) FlavorTemplate {
	if t, ok := m.Flavors[flavor]; ok {
		return t
	}
	return m.Flavors[defaultFlavorKey]
}

// AppName is the BOINC application name create_work registers the
// workunit against.
func (t FlavorTemplate) AppName(flavor string) string {
	return fmt.Sprintf("%s_%s", t.AppPrefix, flavor)
}

// WorkunitTemplate is the --wu_template path for this flavor's
// template version.
func (t FlavorTemplate) WorkunitTemplate() string {
	return fmt.Sprintf("templates/%s/%s/in", t.AppPrefix, t.TemplateVersion)
}

// ResultTemplate is the --result_template path for this flavor's
// template version.
func (t FlavorTemplate) ResultTemplate() string {
	return fmt.Sprintf("templates/%s/%s/out", t.AppPrefix, t.TemplateVersion)
}
