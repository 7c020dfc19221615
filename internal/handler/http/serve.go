package httphandler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"gameshelf/internal/common"
)

const (
	rangeUnit       = "bytes="
	mimeTypeUnknown = "application/octet-stream"
)

type byteRange struct {
	start int64
	end   int64
}

func (br byteRange) length() int64 {
	return br.end - br.start + 1
}

// parseRangeHeader resolves a single-range header against the file size.
// Multi-range requests and anything else unsatisfiable map to
// ErrRangeNotSatisfiableError, which callers answer with 416.
func parseRangeHeader(value string, size int64) (byteRange, error) {
	if size == 0 || !strings.HasPrefix(value, rangeUnit) {
		return byteRange{}, common.ErrRangeNotSatisfiableError
	}

	raw := value[len(rangeUnit):]
	if strings.Contains(raw, ",") {
		// Multipart ranges are a policy rejection, not a parse failure.
		return byteRange{}, common.ErrRangeNotSatisfiableError
	}

	rawStart, rawEnd, found := strings.Cut(raw, "-")
	if !found {
		return byteRange{}, common.ErrRangeNotSatisfiableError
	}

	if rawStart == "" {
		// Suffix form "-N": the last N bytes, clamped to the file size.
		suffix, err := strconv.ParseInt(rawEnd, 10, 64)
		if err != nil || suffix <= 0 {
			return byteRange{}, common.ErrRangeNotSatisfiableError
		}

		start := size - suffix
		if start < 0 {
			start = 0
		}

		return byteRange{start: start, end: size - 1}, nil
	}

	start, err := strconv.ParseInt(rawStart, 10, 64)
	if err != nil {
		return byteRange{}, common.ErrRangeNotSatisfiableError
	}

	end := size - 1
	if rawEnd != "" {
		end, err = strconv.ParseInt(rawEnd, 10, 64)
		if err != nil {
			return byteRange{}, common.ErrRangeNotSatisfiableError
		}
		if end > size-1 {
			end = size - 1
		}
	}

	if start >= size || start > end {
		return byteRange{}, common.ErrRangeNotSatisfiableError
	}

	return byteRange{start: start, end: end}, nil
}

// sanitizePath normalizes a requested download path to the slash-separated
// form the catalog is keyed by, rejecting traversal outside the root.
func sanitizePath(requested string) (string, error) {
	if strings.Contains(requested, "\\") {
		return "", common.ErrInvalidPathError
	}

	for _, segment := range strings.Split(requested, "/") {
		if segment == ".." {
			return "", common.ErrInvalidPathError
		}
	}

	cleaned := path.Clean("/" + requested)
	if cleaned == "/" {
		return "", common.ErrInvalidPathError
	}

	return strings.TrimPrefix(cleaned, "/"), nil
}

// streamFile writes the file at fullPath, honoring a single Range header.
// Once headers are committed a mid-stream failure can only abort the
// connection.
func streamFile(w http.ResponseWriter, r *http.Request, fs afero.Fs, fullPath string, log *slog.Logger) {
	info, err := fs.Stat(fullPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "not found")

		return
	}
	size := info.Size()

	file, err := fs.Open(fullPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")

		return
	}
	defer file.Close()

	w.Header().Set("Accept-Ranges", "bytes")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Type", contentTypeFor(fullPath))
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, file); err != nil {
			log.Debug("Download aborted", slog.String("path", fullPath), slog.Any("error", err))
		}

		return
	}

	br, err := parseRangeHeader(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)

		return
	}

	if _, err := file.Seek(br.start, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")

		return
	}

	w.Header().Set("Content-Type", contentTypeFor(fullPath))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.start, br.end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(br.length(), 10))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.CopyN(w, file, br.length()); err != nil {
		log.Debug("Ranged download aborted", slog.String("path", fullPath), slog.Any("error", err))
	}
}

func joinLibraryPath(root, relativePath string) string {
	return filepath.Join(root, filepath.FromSlash(relativePath))
}

func contentTypeFor(filePath string) string {
	if ext := path.Ext(filePath); ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return mimeType
		}
	}

	return mimeTypeUnknown
}
