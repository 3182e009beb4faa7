package infrastructure

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireGit skips the test when git is not installed.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// gitCmd runs git in dir with a fixed identity and fails the test on error.
func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Mob Test",
		"GIT_AUTHOR_EMAIL=mob@example.com",
		"GIT_COMMITTER_NAME=Mob Test",
		"GIT_COMMITTER_EMAIL=mob@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// fixture is a work tree cloned from a bare "remote" with one commit on main.
type fixture struct {
	base   string
	remote string
	work   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	requireGit(t)

	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	f := fixture{
		base:   base,
		remote: filepath.Join(base, "remote.git"),
		work:   filepath.Join(base, "work"),
	}
	gitCmd(t, base, "init", "--bare", f.remote)
	gitCmd(t, base, "init", f.work)
	gitCmd(t, f.work, "checkout", "-b", "main")
	f.commit(t, f.work, "README.md", "hello\n")
	gitCmd(t, f.work, "remote", "add", "origin", f.remote)
	gitCmd(t, f.work, "push", "-u", "origin", "main")
	return f
}

// clone makes a second work tree of the remote, e.g. another mob member.
func (f fixture) clone(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(f.base, name)
	gitCmd(t, f.base, "clone", "--branch", "main", f.remote, dir)
	return dir
}

func (f fixture) commit(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
	gitCmd(t, dir, "add", file)
	gitCmd(t, dir, "commit", "-m", "update "+file)
}
