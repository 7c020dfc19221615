package httphandler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"gameshelf/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseRangeHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		start  int64
		end    int64
		err    bool
	}{
		{name: "first byte", header: "bytes=0-0", size: 100, start: 0, end: 0},
		{name: "open end", header: "bytes=10-", size: 100, start: 10, end: 99},
		{name: "explicit range", header: "bytes=10-19", size: 100, start: 10, end: 19},
		{name: "end clamped to size", header: "bytes=90-200", size: 100, start: 90, end: 99},
		{name: "suffix", header: "bytes=-10", size: 100, start: 90, end: 99},
		{name: "suffix larger than file", header: "bytes=-500", size: 100, start: 0, end: 99},
		{name: "start at size", header: "bytes=100-", size: 100, err: true},
		{name: "start past size", header: "bytes=500-", size: 100, err: true},
		{name: "inverted", header: "bytes=20-10", size: 100, err: true},
		{name: "multi range", header: "bytes=0-0,50-60", size: 100, err: true},
		{name: "zero suffix", header: "bytes=-0", size: 100, err: true},
		{name: "empty file", header: "bytes=0-0", size: 0, err: true},
		{name: "wrong unit", header: "items=0-0", size: 100, err: true},
		{name: "garbage", header: "bytes=abc-def", size: 100, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br, err := parseRangeHeader(tt.header, tt.size)
			if tt.err {
				require.ErrorIs(t, err, common.ErrRangeNotSatisfiableError)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.start, br.start)
			require.Equal(t, tt.end, br.end)
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		err   bool
	}{
		{name: "plain", input: "game.nsp", want: "game.nsp"},
		{name: "nested", input: "sub/game.nsp", want: "sub/game.nsp"},
		{name: "redundant segments", input: "./sub//game.nsp", want: "sub/game.nsp"},
		{name: "inner dotdot", input: "sub/../game.nsp", err: true},
		{name: "traversal", input: "../etc/passwd", err: true},
		{name: "empty", input: "", err: true},
		{name: "root only", input: "/", err: true},
		{name: "backslash", input: `sub\game.nsp`, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizePath(tt.input)
			if tt.err {
				require.ErrorIs(t, err, common.ErrInvalidPathError)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStreamFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("0123456789")
	require.NoError(t, afero.WriteFile(fs, "/library/game.nsp", content, 0o644))

	t.Run("full body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/download/game.nsp", nil)
		w := httptest.NewRecorder()

		streamFile(w, r, fs, "/library/game.nsp", testLogger())

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
		require.Equal(t, "10", w.Header().Get("Content-Length"))
		require.Equal(t, content, w.Body.Bytes())
	})

	t.Run("partial body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/download/game.nsp", nil)
		r.Header.Set("Range", "bytes=2-5")
		w := httptest.NewRecorder()

		streamFile(w, r, fs, "/library/game.nsp", testLogger())

		require.Equal(t, http.StatusPartialContent, w.Code)
		require.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
		require.Equal(t, "4", w.Header().Get("Content-Length"))
		require.Equal(t, []byte("2345"), w.Body.Bytes())
	})

	t.Run("suffix range", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/download/game.nsp", nil)
		r.Header.Set("Range", "bytes=-3")
		w := httptest.NewRecorder()

		streamFile(w, r, fs, "/library/game.nsp", testLogger())

		require.Equal(t, http.StatusPartialContent, w.Code)
		require.Equal(t, "bytes 7-9/10", w.Header().Get("Content-Range"))
		require.Equal(t, []byte("789"), w.Body.Bytes())
	})

	t.Run("unsatisfiable range", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/download/game.nsp", nil)
		r.Header.Set("Range", "bytes=100-")
		w := httptest.NewRecorder()

		streamFile(w, r, fs, "/library/game.nsp", testLogger())

		require.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
		require.Equal(t, "bytes */10", w.Header().Get("Content-Range"))
		require.Empty(t, w.Body.Bytes())
	})

	t.Run("missing file", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/download/nope.nsp", nil)
		w := httptest.NewRecorder()

		streamFile(w, r, fs, "/library/nope.nsp", testLogger())

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("directory", func(t *testing.T) {
		require.NoError(t, fs.MkdirAll("/library/dir", 0o755))

		r := httptest.NewRequest(http.MethodGet, "/download/dir", nil)
		w := httptest.NewRecorder()

		streamFile(w, r, fs, "/library/dir", testLogger())

		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
