package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/anonymous-confessions/internal/core/domain/confession"
)

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	logger.SetOutput(io.Discard)
	timeout = 10 * time.Second
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func TestRenderCmd_WritesJPEG(t *testing.T) {
	cmd, out := newTestCmd()
	dir := t.TempDir()
	renderText = "I still sleep with the hallway light on"
	renderOut = filepath.Join(dir, "preview.jpg")
	renderOverlay = true
	defer func() { renderText, renderOut, renderOverlay = "", "confession.jpg", false }()

	require.NoError(t, runRender(cmd, nil))

	data, err := os.ReadFile(renderOut)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xFF, 0xD8}), "expected JPEG magic")
	require.Contains(t, out.String(), "<svg")
	require.Contains(t, out.String(), "wrote ")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRenderCmd_RejectsInvalidLength(t *testing.T) {
	cmd, _ := newTestCmd()
	dir := t.TempDir()
	renderText = "short"
	renderOut = filepath.Join(dir, "preview.jpg")
	defer func() { renderText, renderOut = "", "confession.jpg" }()

	err := runRender(cmd, nil)
	require.True(t, confession.IsKind(err, confession.KindValidation))
	_, statErr := os.Stat(renderOut)
	require.True(t, os.IsNotExist(statErr))
}

func TestLoginCmd_RequiresCredentials(t *testing.T) {
	cmd, _ := newTestCmd()
	t.Setenv("IG_USERNAME", "")
	t.Setenv("IG_PASSWORD", "")

	err := runLogin(cmd, nil)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "IG_USERNAME"))
}
