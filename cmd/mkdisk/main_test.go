package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestWriteManifestRoundTrips(t *testing.T) {
	dir := t.TempDir()
	kernel := filepath.Join(dir, "kernel.elf")
	require.NoError(t, os.WriteFile(kernel, []byte("not a real elf"), 0o644))

	out := filepath.Join(dir, "disk.json")
	img := Image{Kernel: kernel, CmdLine: "no_pae preinit_serial"}

	require.NoError(t, writeManifest(logr.Discard(), img, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var got Image
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, img, got)
}

func TestWriteManifestRejectsMissingKernel(t *testing.T) {
	dir := t.TempDir()
	err := writeManifest(logr.Discard(), Image{Kernel: filepath.Join(dir, "absent.elf")}, filepath.Join(dir, "disk.json"))
	require.Error(t, err)
}
