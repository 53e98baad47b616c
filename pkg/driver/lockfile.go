package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lockfile records the resolved source and revision of every
// dependency a manifest named. `golua deps install` writes it; it
// does not read it back when resolving dependencies.
type Lockfile struct {
	Path     string
	Root     string
	Tool     string
	Packages []*LockedPackage
}

// LockedPackage captures a single resolved dependency entry.
type LockedPackage struct {
	Name     string
	Source   string // "git", "path", or "registry"
	Resolved string // git remote as url@ref, filesystem path, or registry name
	Revision string // commit SHA for git sources, version for registry sources; empty for path sources
}

// NewLockfile constructs a lockfile with metadata seeded for root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:     sanitizeSegment(root),
		Tool:     strings.TrimSpace(tool),
		Packages: []*LockedPackage{},
	}
}

// LoadLockfile parses lua.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	lock.normalize()
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = sanitizeSegment(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	sort.SliceStable(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
	for _, pkg := range l.Packages {
		if pkg == nil {
			continue
		}
		pkg.Name = sanitizeSegment(pkg.Name)
		pkg.Source = strings.TrimSpace(pkg.Source)
		pkg.Resolved = strings.TrimSpace(pkg.Resolved)
		pkg.Revision = strings.TrimSpace(pkg.Revision)
	}
}

func (l *Lockfile) toDisk() lockfileDisk {
	pkgs := make([]lockfilePackage, 0, len(l.Packages))
	for _, pkg := range l.Packages {
		if pkg == nil {
			continue
		}
		pkgs = append(pkgs, lockfilePackage{
			Name:     pkg.Name,
			Source:   pkg.Source,
			Resolved: pkg.Resolved,
			Revision: pkg.Revision,
		})
	}
	return lockfileDisk{
		Root:     l.Root,
		Tool:     l.Tool,
		Packages: pkgs,
	}
}

type lockfileDisk struct {
	Root     string            `yaml:"root"`
	Tool     string            `yaml:"tool"`
	Packages []lockfilePackage `yaml:"packages"`
}

type lockfilePackage struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Resolved string `yaml:"resolved"`
	Revision string `yaml:"revision"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:     sanitizeSegment(d.Root),
		Tool:     strings.TrimSpace(d.Tool),
		Packages: make([]*LockedPackage, 0, len(d.Packages)),
	}
	for _, pkg := range d.Packages {
		lock.Packages = append(lock.Packages, &LockedPackage{
			Name:     sanitizeSegment(pkg.Name),
			Source:   strings.TrimSpace(pkg.Source),
			Resolved: strings.TrimSpace(pkg.Resolved),
			Revision: strings.TrimSpace(pkg.Revision),
		})
	}
	lock.normalize()
	return lock
}

func sanitizeSegment(s string) string {
	return strings.Trim(strings.TrimSpace(s), "/")
}
