package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	apperrors "github.com/FocuswithJustin/rtftree/core/errors"
)

type entry struct {
	name    string
	content string
	dir     bool
}

var testEntries = []entry{
	{name: "letters/", dir: true},
	{name: "letters/one.rtf", content: `{\rtf1 one}`},
	{name: "letters/notes.txt", content: "not rtf"},
	{name: "letters/TWO.RTF", content: `{\rtf1 two}`},
}

func writeTar(t *testing.T, w io.Writer, entries []entry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.content))}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func createTestTarGz(t *testing.T, dir string) string {
	path := filepath.Join(dir, "test.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	writeTar(t, gw, testEntries)
	gw.Close()
	return path
}

func createTestTarXz(t *testing.T, dir string) string {
	path := filepath.Join(dir, "test.tar.xz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	xw, err := xz.NewWriter(f)
	require.NoError(t, err)
	writeTar(t, xw, testEntries)
	xw.Close()
	return path
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"memo.rtf", KindPlain},
		{"memo.rtf.gz", KindGzip},
		{"memo.RTF.XZ", KindXz},
		{"letters.tar.gz", KindTarGz},
		{"letters.tgz", KindTarGz},
		{"letters.tar.xz", KindTarXz},
		{"letters.txz", KindTarXz},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.path))
		})
	}
	assert.False(t, IsArchive("memo.rtf.xz"))
	assert.True(t, IsArchive("letters.tar.xz"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	content := `{\rtf1 hello}`

	plain := filepath.Join(dir, "plain.rtf")
	require.NoError(t, os.WriteFile(plain, []byte(content), 0644))

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write([]byte(content))
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "memo.rtf.gz")
	require.NoError(t, os.WriteFile(gzPath, gzBuf.Bytes(), 0644))

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	xw.Write([]byte(content))
	require.NoError(t, xw.Close())
	xzPath := filepath.Join(dir, "memo.rtf.xz")
	require.NoError(t, os.WriteFile(xzPath, xzBuf.Bytes(), 0644))

	for _, path := range []string{plain, gzPath, xzPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, content, string(got))
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.rtf.gz")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a gzip file"), 0644))

	_, err := Open(corrupt)
	assert.Error(t, err, "corrupted gzip")
	_, err = Open(filepath.Join(dir, "missing.rtf"))
	assert.Error(t, err, "missing file")
}

func TestNewReader(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "tar.gz archive",
			setup: func(t *testing.T) string {
				return createTestTarGz(t, dir)
			},
		},
		{
			name: "tar.xz archive",
			setup: func(t *testing.T) string {
				return createTestTarXz(t, dir)
			},
		},
		{
			name: "unsupported format",
			setup: func(t *testing.T) string {
				path := filepath.Join(dir, "test.zip")
				os.WriteFile(path, []byte("not a tar"), 0644)
				return path
			},
			wantErr: true,
		},
		{
			name: "nonexistent file",
			setup: func(t *testing.T) string {
				return filepath.Join(dir, "nonexistent.tar.gz")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(tt.setup(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, r.Close())
		})
	}
}

func TestNewReader_ErrorKinds(t *testing.T) {
	dir := t.TempDir()

	_, err := NewReader(filepath.Join(dir, "letters.zip"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupported)

	_, err = NewReader(filepath.Join(dir, "missing.tar.gz"))
	var ioErr *apperrors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Operation)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReaderIterateSkipsDirectories(t *testing.T) {
	r, err := NewReader(createTestTarGz(t, t.TempDir()))
	require.NoError(t, err)
	defer r.Close()

	var files []string
	err = r.Iterate(func(header *tar.Header, _ io.Reader) (bool, error) {
		files = append(files, header.Name)
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"letters/one.rtf", "letters/notes.txt", "letters/TWO.RTF"}, files)
}

func TestReaderIterateStops(t *testing.T) {
	r, err := NewReader(createTestTarXz(t, t.TempDir()))
	require.NoError(t, err)
	defer r.Close()

	count := 0
	err = r.Iterate(func(*tar.Header, io.Reader) (bool, error) {
		count++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReaderIterateTruncatedArchive(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte("short"))
	require.NoError(t, gw.Close())

	path := filepath.Join(t.TempDir(), "short.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	err = r.Iterate(func(*tar.Header, io.Reader) (bool, error) { return false, nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), path)
}

func TestEachRTF(t *testing.T) {
	dir := t.TempDir()
	want := map[string]string{
		"letters/one.rtf": `{\rtf1 one}`,
		"letters/TWO.RTF": `{\rtf1 two}`,
	}

	for _, path := range []string{createTestTarGz(t, dir), createTestTarXz(t, dir)} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			got := map[string]string{}
			err := EachRTF(path, func(name string, content io.Reader) error {
				data, err := io.ReadAll(content)
				got[name] = string(data)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestEachRTF_CallbackError(t *testing.T) {
	path := createTestTarGz(t, t.TempDir())

	calls := 0
	err := EachRTF(path, func(string, io.Reader) error {
		calls++
		return io.ErrUnexpectedEOF
	})
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, 1, calls, "iteration should stop after the first error")
}
