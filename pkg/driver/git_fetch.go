package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitFetcher clones git-sourced dependencies into a cache directory
// and checks out the revision a manifest's dependency entry pins.
type GitFetcher struct {
	CacheDir string
}

// NewGitFetcher constructs a fetcher rooted at cacheDir. A blank
// cacheDir yields a nil fetcher rather than an error at
// construction; Fetch on a nil fetcher returns an error.
func NewGitFetcher(cacheDir string) *GitFetcher {
	if cacheDir == "" {
		return nil
	}
	return &GitFetcher{CacheDir: cacheDir}
}

// Fetch clones name's repository to resolve the revision its
// DependencySpec pins, checks that commit out into the cache unless
// it is already there, and returns the locked package entry to
// persist.
func (g *GitFetcher) Fetch(name string, spec *DependencySpec) (*LockedPackage, error) {
	if g == nil {
		return nil, fmt.Errorf("git fetcher unavailable")
	}
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git url required", name)
	}

	revision, descriptor, err := revisionFromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}

	baseDir := filepath.Join(g.CacheDir, "pkg", "src", sanitizeSegment(name))
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	commit, err := resolveCommit(baseDir, url, revision)
	if err != nil {
		return nil, fmt.Errorf("dependency %q: %w", name, err)
	}

	targetDir := filepath.Join(baseDir, sanitizeSegment(commit))
	if _, err := os.Stat(targetDir); err != nil {
		if err := checkoutCommit(baseDir, url, commit, targetDir); err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}
	}

	return &LockedPackage{
		Name:     sanitizeSegment(name),
		Source:   "git",
		Resolved: fmt.Sprintf("%s@%s", url, descriptor),
		Revision: commit,
	}, nil
}

func revisionFromSpec(spec *DependencySpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git dependencies require rev, tag, or branch")
}

// resolveCommit clones the repository into a scratch directory just
// long enough to resolve revision to a commit hash, then discards
// the clone; checkoutCommit does the real, cached checkout.
func resolveCommit(baseDir, url string, revision plumbing.Revision) (string, error) {
	tmpDir, err := os.MkdirTemp(baseDir, "resolve-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return "", fmt.Errorf("git clone %s: %w", url, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}
	return hash.String(), nil
}

func checkoutCommit(baseDir, url, commit, targetDir string) error {
	tmpDir, err := os.MkdirTemp(baseDir, "checkout-*")
	if err != nil {
		return err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("git clone %s: %w", url, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(commit),
		Force: true,
	}); err != nil {
		os.RemoveAll(tmpDir)
		return fmt.Errorf("git checkout %s: %w", commit, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		os.RemoveAll(tmpDir)
		return err
	}
	return nil
}
