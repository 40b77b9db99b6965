package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cs4t "github.com/uccser/cs4teachers"
)

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()
	Version, GitCommit = "1.2.0", "abc123"

	root := newRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), "cs4teachers 1.2.0 (abc123)")
	assert.Contains(t, buf.String(), "Go version:")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "seed", "hash-password", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestSeedCommandWritesDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_PATH", dir+"/seed.db")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("ADMIN_SESSION_SECRET", "0123456789abcdef0123456789abcdef")

	root := newRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"seed", "--series", "1", "--events", "2", "--third-party-events", "1"})
	require.NoError(t, root.Execute())
	assert.FileExists(t, dir+"/seed.db")
}

func TestHashPasswordCommand(t *testing.T) {
	for _, tc := range []struct {
		name  string
		args  []string
		stdin string
	}{
		{"argument", []string{"hash-password", "hunter2"}, ""},
		{"stdin", []string{"hash-password"}, "hunter2\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			root := newRootCommand()
			buf := new(bytes.Buffer)
			root.SetOut(buf)
			root.SetIn(strings.NewReader(tc.stdin))
			root.SetArgs(tc.args)
			require.NoError(t, root.Execute())

			hash := strings.TrimSpace(buf.String())
			assert.True(t, strings.HasPrefix(hash, "$2a$"))
			assert.True(t, cs4t.CheckAdminPassword(hash, "hunter2"))
			assert.False(t, cs4t.CheckAdminPassword(hash, "hunter3"))
		})
	}
}

func TestHashPasswordCommandRejectsEmpty(t *testing.T) {
	root := newRootCommand()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetIn(strings.NewReader("\n"))
	root.SetArgs([]string{"hash-password"})
	assert.Error(t, root.Execute())
}
