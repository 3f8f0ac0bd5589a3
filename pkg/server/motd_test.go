package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMOTDMissingFileFallsBack(t *testing.T) {
	m := NewMOTD(filepath.Join(t.TempDir(), "motd.txt"), zaptest.NewLogger(t))
	defer m.Close()
	assert.Equal(t, DefaultMOTD, m.Text())
}

func TestMOTDLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motd.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello there.\n"), 0o644))
	m := NewMOTD(path, zaptest.NewLogger(t))
	defer m.Close()
	assert.Equal(t, "Hello there.\n", m.Text())
}

func TestMOTDReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motd.txt")
	require.NoError(t, os.WriteFile(path, []byte("before\n"), 0o644))
	m := NewMOTD(path, zaptest.NewLogger(t))
	defer m.Close()
	require.Equal(t, "before\n", m.Text())

	require.NoError(t, os.WriteFile(path, []byte("after\n"), 0o644))
	require.Eventually(t, func() bool { return m.Text() == "after\n" },
		3*time.Second, 20*time.Millisecond)
}

func TestMOTDEmptyPath(t *testing.T) {
	m := NewMOTD("", zaptest.NewLogger(t))
	defer m.Close()
	assert.Equal(t, DefaultMOTD, m.Text())
}
