package driver

import (
	"fmt"
	"path/filepath"
	"sort"
)

// InstallDependencies resolves every dependency named by manifest,
// fetching git sources with a GitFetcher and recording path/registry
// sources as-is, and returns the lockfile to persist alongside it.
func InstallDependencies(manifest *Manifest, cacheDir string) (*Lockfile, error) {
	lock := NewLockfile(filepath.Dir(manifest.Path), "golua")
	fetcher := NewGitFetcher(cacheDir)

	names := make([]string, 0, len(manifest.Dependencies))
	for name := range manifest.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := manifest.Dependencies[name]
		switch {
		case dep.Git != "":
			pkg, err := fetcher.Fetch(name, dep)
			if err != nil {
				return nil, err
			}
			lock.Packages = append(lock.Packages, pkg)
		case dep.Path != "":
			lock.Packages = append(lock.Packages, &LockedPackage{
				Name:     name,
				Source:   "path",
				Resolved: dep.Path,
			})
		case dep.Registry != "":
			lock.Packages = append(lock.Packages, &LockedPackage{
				Name:     name,
				Source:   "registry",
				Resolved: dep.Registry,
				Revision: dep.Version,
			})
		default:
			return nil, fmt.Errorf("dependency %q has no resolvable source", name)
		}
	}

	lock.normalize()
	return lock, nil
}

// SearchPaths builds the ordered list of directories the module
// loader should consult when resolving `require`-style module names:
// the manifest's own directory first, then each locked dependency's
// resolved location.
func SearchPaths(manifest *Manifest, lock *Lockfile, cacheDir string) []string {
	var paths []string
	if manifest != nil {
		paths = append(paths, filepath.Dir(manifest.Path))
	}
	if lock == nil {
		return paths
	}
	for _, pkg := range lock.Packages {
		if pkg == nil {
			continue
		}
		switch pkg.Source {
		case "path":
			paths = append(paths, pkg.Resolved)
		case "git":
			paths = append(paths, filepath.Join(cacheDir, "pkg", "src", pkg.Name, pkg.Revision))
		case "registry":
			paths = append(paths, filepath.Join(cacheDir, "pkg", "src", pkg.Name, pkg.Revision))
		}
	}
	return paths
}
