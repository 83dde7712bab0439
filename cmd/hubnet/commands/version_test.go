package commands

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersionInfo(t *testing.T, v, c, d string) {
	t.Helper()
	origVersion, origCommit, origDate := version, commit, date
	t.Cleanup(func() {
		version, commit, date = origVersion, origCommit, origDate
	})
	SetVersionInfo(v, c, d)
}

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	cmd := Version()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersion_Output(t *testing.T) {
	withVersionInfo(t, "1.2.3", "abc123", "2026-01-01")

	out := runVersion(t)
	assert.Equal(t, "hubnet 1.2.3 (abc123, built 2026-01-01)\n  "+
		runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH+"\n", out)
}

func TestVersion_Short(t *testing.T) {
	withVersionInfo(t, "1.2.3", "abc123", "2026-01-01")

	assert.Equal(t, "1.2.3\n", runVersion(t, "--short"))
}

func TestVersion_RejectsArgs(t *testing.T) {
	cmd := Version()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
