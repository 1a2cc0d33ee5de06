// Package git versions the store files of a data directory by shelling out to
// the git binary.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/tillage/internal/lockfile"
)

// LockName is the lock file guarding the git index of a data directory.
const LockName = ".tillage-git.lock"

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockPath string
}

// NewClient creates a new git client for the given working directory.
func NewClient(workDir string, logger *slog.Logger) *Client {
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockPath: filepath.Join(workDir, LockName),
	}
}

// IsInstalled reports whether a git binary is on the PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires the index lock. It blocks until the lock is acquired, ctx is
// done or timeout elapses.
func (c *Client) Lock(ctx context.Context, timeout time.Duration) (func(), error) {
	return lockfile.Acquire(ctx, c.lockPath, timeout)
}

// Run executes a raw git command in the working directory.
// It does NOT take the lock; callers serialise through Client.Lock.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}
	return output, nil
}

// IsRepo reports whether WorkDir is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init initializes a new repository. Re-running it on an existing one is safe.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"add", "--"}, files...)...)
	return err
}

// Status returns the porcelain status, limited to files when given.
func (c *Client) Status(ctx context.Context, files ...string) (string, error) {
	args := []string{"status", "--porcelain"}
	if len(files) > 0 {
		args = append(append(args, "--"), files...)
	}
	return c.Run(ctx, args...)
}

// Commit records the staged changes. A fallback identity is used when the
// repository has none configured.
func (c *Client) Commit(ctx context.Context, msg string) error {
	args := []string{"commit", "-m", msg}
	if email, _ := c.Run(ctx, "config", "user.email"); email == "" {
		args = append([]string{"-c", "user.name=tillage", "-c", "user.email=tillage@localhost"}, args...)
	}
	_, err := c.Run(ctx, args...)
	return err
}

// CommitFiles stages files and commits them with msg. It is a no-op when the
// files carry no change.
func (c *Client) CommitFiles(ctx context.Context, msg string, files ...string) error {
	if err := c.Add(ctx, files...); err != nil {
		return err
	}
	status, err := c.Status(ctx, files...)
	if err != nil {
		return err
	}
	if status == "" {
		return nil
	}
	return c.Commit(ctx, msg)
}
