package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// env is an isolated home, data dir and config file for one test.
type env struct {
	home    string
	dataDir string
	config  string
}

func newEnv(t *testing.T, extraConfig string) env {
	t.Helper()
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	e := env{
		home:    home,
		dataDir: filepath.Join(home, "data"),
		config:  filepath.Join(home, "mob.yaml"),
	}
	body := "data_dir: " + e.dataDir + "\ntimer:\n  notify: false\n" + extraConfig
	require.NoError(t, os.WriteFile(e.config, []byte(body), 0o600))
	return e
}

// execute runs the command line with the env's config and returns stdout,
// stderr and the exit code.
func (e env) execute(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	return execute(t, append([]string{"--config", e.config, "-C", dir}, args...)...)
}

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	code := run()
	return out.String(), errOut.String(), code
}

// resetFlags restores every flag to its default so commands do not leak
// state between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	c := exec.Command("git", args...)
	c.Dir = dir
	c.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Mob Test",
		"GIT_AUTHOR_EMAIL=mob@example.com",
		"GIT_COMMITTER_NAME=Mob Test",
		"GIT_COMMITTER_EMAIL=mob@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := c.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// newRepo creates a work tree on main tracking a bare origin and returns
// the work tree path.
func newRepo(t *testing.T, base string) string {
	t.Helper()
	requireGit(t)
	remote := filepath.Join(base, "remote.git")
	work := filepath.Join(base, "work")
	gitCmd(t, base, "init", "--bare", remote)
	gitCmd(t, base, "init", work)
	gitCmd(t, work, "checkout", "-b", "main")
	require.NoError(t, os.WriteFile(filepath.Join(work, "README.md"), []byte("hello\n"), 0o600))
	gitCmd(t, work, "add", "README.md")
	gitCmd(t, work, "commit", "-m", "initial")
	gitCmd(t, work, "remote", "add", "origin", remote)
	gitCmd(t, work, "push", "-u", "origin", "main")
	return work
}
