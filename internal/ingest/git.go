package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

var (
	// ErrRepoNotFound covers a missing repository and a missing branch.
	ErrRepoNotFound = errors.New("repository or branch not found")
	// ErrAuthRequired is returned for private repositories.
	ErrAuthRequired = errors.New("repository requires authentication")
)

const DefaultFetchTimeout = 2 * time.Minute

// GitFetcher performs shallow, single-branch clones. It never retries.
type GitFetcher struct {
	Timeout time.Duration
}

// Fetch clones branch of url into dest and removes the .git directory.
// Failures are classified as ErrRepoNotFound, ErrAuthRequired or left as
// a plain wrapped error.
func (g GitFetcher) Fetch(ctx context.Context, url, branch, dest string) error {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := &git.CloneOptions{
		URL:          url,
		SingleBranch: true,
		Depth:        1,
		Tags:         git.NoTags,
	}
	if b := strings.TrimSpace(branch); b != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(b)
	}
	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		return classify(err)
	}
	if err := os.RemoveAll(filepath.Join(dest, git.GitDirName)); err != nil {
		return fmt.Errorf("remove .git: %w", err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, git.NoMatchingRefSpecError{}):
		return fmt.Errorf("%w: %v", ErrRepoNotFound, err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	return fmt.Errorf("clone: %w", err)
}
