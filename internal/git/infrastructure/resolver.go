package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/zjrosen/mob/internal/git/application"
	domain "github.com/zjrosen/mob/internal/git/domain"
	"github.com/zjrosen/mob/internal/log"
)

// Resolver turns a working directory into a repository handle.
//
// Directory to work-tree-root lookups are memoized for a short time. Branch
// topology is never cached here; only the location of the repository is.
type Resolver struct {
	roots   *cache.Cache
	timeout time.Duration
}

// Ensure Resolver implements application.RepositoryResolver.
var _ application.RepositoryResolver = (*Resolver)(nil)

// NewResolver creates a resolver whose root lookups expire after ttl.
func NewResolver(ttl, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		roots:   cache.New(ttl, 2*ttl),
		timeout: timeout,
	}
}

// Resolve returns the repository containing dir. When dir is not inside a
// work tree, its immediate subdirectories are searched; exactly one git
// repository must be found there.
func (r *Resolver) Resolve(ctx context.Context, dir string) (domain.Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return domain.Repository{}, fmt.Errorf("resolving %s: %w", dir, err)
	}

	root, err := r.root(ctx, abs)
	if err != nil {
		return domain.Repository{}, err
	}

	remotes, err := NewExecutor(root, r.timeout).Remotes(ctx)
	if err != nil {
		return domain.Repository{}, fmt.Errorf("listing remotes: %w", err)
	}
	repo := domain.Repository{Root: root, Remotes: remotes}
	log.Debug(log.CatGit, "resolved repository", "dir", abs, "root", root, "remotes", repo.Remotes)
	return repo, nil
}

func (r *Resolver) root(ctx context.Context, abs string) (string, error) {
	if cached, ok := r.roots.Get(abs); ok {
		return cached.(string), nil
	}

	if top, ok, err := r.toplevel(ctx, abs); err != nil {
		return "", err
	} else if ok {
		r.roots.SetDefault(abs, top)
		return top, nil
	}

	candidates, err := r.childRepositories(ctx, abs)
	if err != nil {
		return "", err
	}
	if len(candidates) != 1 {
		return "", &domain.LookupError{Path: abs, Candidates: candidates}
	}
	r.roots.SetDefault(abs, candidates[0])
	return candidates[0], nil
}

// toplevel reports the work tree root containing dir, if any.
func (r *Resolver) toplevel(ctx context.Context, dir string) (string, bool, error) {
	out, _, err := runGit(ctx, dir, r.timeout, "rev-parse", "--show-toplevel")
	if err != nil {
		if errors.Is(err, domain.ErrGitNotInstalled) || errors.Is(err, domain.ErrGitTimeout) {
			return "", false, err
		}
		return "", false, nil
	}
	if out == "" {
		// bare repository or .git directory itself
		return "", false, nil
	}
	return filepath.Clean(out), true, nil
}

func (r *Resolver) childRepositories(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var found []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(child, ".git")); err != nil {
			continue
		}
		if top, ok, err := r.toplevel(ctx, child); err == nil && ok {
			found = append(found, top)
		}
	}
	sort.Strings(found)
	return found, nil
}
