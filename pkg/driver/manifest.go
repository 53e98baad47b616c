// Package driver provides the ambient project tooling around the
// evaluator core: manifest loading, lockfile persistence, and
// git-based module dependency fetching. None of it is consulted by
// the evaluator itself — it exists to get a Lua project's entry
// script and its dependencies onto disk before pkg/interp ever sees
// an AST.
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest represents the parsed contents of a project's lua.yml.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	License      string
	Authors      []string
	Entry        string
	Dependencies map[string]*DependencySpec
}

// DependencySpec describes one dependency descriptor in the manifest.
// Exactly one of Git, Path, or Registry identifies the source.
type DependencySpec struct {
	Version  string
	Git      string
	Rev      string
	Tag      string
	Branch   string
	Path     string
	Registry string
}

// ValidationError aggregates manifest validation failures so a
// caller sees every problem in one report instead of stopping at the
// first.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses lua.yml from disk, returning a validated
// manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Entry == "" {
		errs.Issues = append(errs.Issues, "entry must name the script to run")
	}
	for i, author := range m.Authors {
		if strings.TrimSpace(author) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("authors[%d] must be a non-empty string", i))
		}
	}
	depNames := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		depNames = append(depNames, name)
	}
	sort.Strings(depNames)
	for _, name := range depNames {
		dep := m.Dependencies[name]
		if dep == nil {
			continue
		}
		sources := 0
		if dep.Git != "" {
			sources++
		}
		if dep.Path != "" {
			sources++
		}
		if dep.Registry != "" {
			sources++
		}
		if sources == 0 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependency %q must set one of git, path, or registry", name))
		}
		if sources > 1 {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependency %q must set exactly one of git, path, or registry", name))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

//-----------------------------------------------------------------------------
// YAML disk representation
//-----------------------------------------------------------------------------

type manifestFile struct {
	Name         string                     `yaml:"name"`
	Version      string                     `yaml:"version"`
	License      string                     `yaml:"license"`
	Authors      []string                   `yaml:"authors"`
	Entry        string                     `yaml:"entry"`
	Dependencies map[string]*dependencyDisk `yaml:"dependencies"`
}

type dependencyDisk struct {
	Version  string `yaml:"version"`
	Git      string `yaml:"git"`
	Rev      string `yaml:"rev"`
	Tag      string `yaml:"tag"`
	Branch   string `yaml:"branch"`
	Path     string `yaml:"path"`
	Registry string `yaml:"registry"`
}

// UnmarshalYAML allows a dependency entry to be written as a bare
// version string (`foo: "1.0"`, implying the registry source) or as
// a full mapping, matching the shorthand the rest of the pack's
// manifest formats support.
func (d *dependencyDisk) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d.Version = value.Value
		d.Registry = "default"
		return nil
	}
	type plain dependencyDisk
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = dependencyDisk(p)
	return nil
}

func (f *manifestFile) toManifest(absPath string) *Manifest {
	m := &Manifest{
		Path:         absPath,
		Name:         f.Name,
		Version:      f.Version,
		License:      f.License,
		Authors:      append([]string{}, f.Authors...),
		Entry:        f.Entry,
		Dependencies: make(map[string]*DependencySpec, len(f.Dependencies)),
	}
	for name, dep := range f.Dependencies {
		if dep == nil {
			continue
		}
		m.Dependencies[name] = &DependencySpec{
			Version:  dep.Version,
			Git:      dep.Git,
			Rev:      dep.Rev,
			Tag:      dep.Tag,
			Branch:   dep.Branch,
			Path:     dep.Path,
			Registry: dep.Registry,
		}
	}
	return m
}
