package source

import (
	"context"
	"os"
	"os/exec"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// ErrGitNotFound means no version-control client is discoverable, which
// leaves no way to obtain source for the last-resort build.
var ErrGitNotFound = errors.New("git not found: install git and retry")

// Cloner obtains a temporary source tree by shallow-cloning the upstream
// repository.
type Cloner struct {
	// Git is the version-control client to invoke, "git" unless overridden.
	Git string
	// RepoURL is the clone URL of the upstream repository.
	RepoURL string
	// Branch is the single branch to clone.
	Branch string
}

// Clone performs a shallow single-branch clone into a fresh temporary
// directory and returns its path together with a cleanup function. The
// cleanup is valid the moment the directory exists; callers must defer it
// immediately so the clone is removed on every exit path, interruption
// included.
func (c *Cloner) Clone(ctx context.Context) (string, func(), error) {
	git := c.Git
	if git == "" {
		git = "git"
	}
	gitPath, err := exec.LookPath(git)
	if err != nil {
		return "", nil, ErrGitNotFound
	}

	dir, err := os.MkdirTemp("", "ratlog-src-")
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create temporary clone directory")
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warn("failed to remove temporary clone")
		}
	}

	log.WithField("repo", c.RepoURL).WithField("branch", c.Branch).Info("cloning source repository")
	cmd := exec.CommandContext(ctx, gitPath, "clone", "--depth", "1", "--branch", c.Branch, "--single-branch", c.RepoURL, dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		if ctx.Err() != nil {
			return "", nil, errors.Wrap(ctx.Err(), "clone interrupted")
		}
		return "", nil, errors.Wrapf(err, "git clone failed:\n%s", tail(string(out), 10))
	}

	return dir, cleanup, nil
}
