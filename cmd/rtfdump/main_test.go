package main

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	apperrors "github.com/FocuswithJustin/rtftree/core/errors"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func createXZFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return createTestFile(t, dir, name, buf.String())
}

func createTarGz(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for entry, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: entry, Mode: 0644, Size: int64(len(content))}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return createTestFile(t, dir, name, buf.String())
}

// decodeResults reads one JSON record per line.
func decodeResults(t *testing.T, out *bytes.Buffer) []map[string]any {
	t.Helper()
	var results []map[string]any
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), "invalid JSON line %q", sc.Text())
		results = append(results, rec)
	}
	return results
}

const letter = `{\rtf1\ansi{\fonttbl{\f0 Arial;}}\f0 Dear {\b reader}\par Thanks\zzzz}`

func TestDumpCmd(t *testing.T) {
	dir := t.TempDir()
	plain := createTestFile(t, dir, "letter.rtf", letter)
	packed := createXZFile(t, dir, "letter.rtf.xz", letter)

	for _, stream := range []bool{false, true} {
		cmd := &DumpCmd{
			Files:            []string{plain, packed},
			FallbackCodepage: 1252,
			Stream:           stream,
			ChunkSize:        7,
		}
		var out bytes.Buffer
		require.NoError(t, cmd.run(context.Background(), &out), "stream=%v", stream)

		results := decodeResults(t, &out)
		require.Len(t, results, 2)
		for _, rec := range results {
			assert.IsType(t, map[string]any{}, rec["document"], "record for %v has no document", rec["path"])
			diags, _ := rec["diagnostics"].([]any)
			assert.Len(t, diags, 1, "diagnostics for %v", rec["path"])
		}
		if !stream {
			assert.Equal(t, results[0]["digest"], results[1]["digest"], "plain and xz inputs should share a digest")
		}
	}
}

func TestDumpCmdFatalFile(t *testing.T) {
	dir := t.TempDir()
	good := createTestFile(t, dir, "good.rtf", `{\rtf1 ok}`)
	bad := createTestFile(t, dir, "bad.rtf", `{\rtf1{\colortbl;broken;}}`)

	cmd := &DumpCmd{Files: []string{good, bad}, FallbackCodepage: 1252}
	var out bytes.Buffer
	err := cmd.run(context.Background(), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	results := decodeResults(t, &out)
	require.Len(t, results, 2)
	assert.Nil(t, results[0]["error"])
	assert.Contains(t, results[1]["error"], "color table")
}

func TestDumpCmdFallbackCodepage(t *testing.T) {
	tests := []struct {
		codepage int
		wantErr  bool
	}{
		{1252, false},
		{1251, false},
		{437, false},
		{932, true},
		{99999, true},
	}

	for _, tt := range tests {
		cmd := &DumpCmd{FallbackCodepage: tt.codepage}
		_, err := cmd.config()
		if tt.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrUnsupported, "codepage %d", tt.codepage)
		} else {
			assert.NoError(t, err, "codepage %d", tt.codepage)
		}
	}
}

func TestDumpCmdArchive(t *testing.T) {
	dir := t.TempDir()
	path := createTarGz(t, dir, "letters.tar.gz", map[string]string{
		"letters/a.rtf":     letter,
		"letters/b.rtf":     `{\rtf1{\colortbl;broken;}}`,
		"letters/readme.md": "skip me",
	})

	cmd := &DumpCmd{Files: []string{path}, FallbackCodepage: 1252}
	var out bytes.Buffer
	err := cmd.run(context.Background(), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	byPath := map[string]map[string]any{}
	for _, rec := range decodeResults(t, &out) {
		byPath[rec["path"].(string)] = rec
	}
	require.Len(t, byPath, 2)

	a := byPath[path+":letters/a.rtf"]
	require.NotNil(t, a)
	assert.NotNil(t, a["document"])

	b := byPath[path+":letters/b.rtf"]
	require.NotNil(t, b)
	assert.NotNil(t, b["error"])
}

func TestDumpCmdMissingFile(t *testing.T) {
	cmd := &DumpCmd{Files: []string{filepath.Join(t.TempDir(), "missing.rtf")}, FallbackCodepage: 1252}
	var out bytes.Buffer
	assert.Error(t, cmd.run(context.Background(), &out))

	results := decodeResults(t, &out)
	require.Len(t, results, 1)
	assert.NotNil(t, results[0]["error"])
}

func TestDumpCmdCorruptArchive(t *testing.T) {
	path := createTestFile(t, t.TempDir(), "broken.tar.xz", "not xz data")
	cmd := &DumpCmd{Files: []string{path}, FallbackCodepage: 1252}
	var out bytes.Buffer
	assert.Error(t, cmd.run(context.Background(), &out))

	results := decodeResults(t, &out)
	require.Len(t, results, 1)
	assert.Equal(t, path, results[0]["path"])
	assert.NotNil(t, results[0]["error"])
}

func TestWriteErrorStopsRun(t *testing.T) {
	dir := t.TempDir()
	path := createTarGz(t, dir, "letters.tar.gz", map[string]string{"a.rtf": `{\rtf1 a}`})

	cmd := &DumpCmd{Files: []string{path}, FallbackCodepage: 1252}
	err := cmd.run(context.Background(), failingWriter{})

	var we *writeError
	require.True(t, apperrors.As(err, &we), "error = %v", err)
	assert.ErrorIs(t, err, os.ErrClosed)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }
