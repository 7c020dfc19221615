package fsadapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"gameshelf/internal/common"
	"gameshelf/internal/entity"
)

var contentExtensions = map[string]struct{}{
	".nsp": {},
	".xci": {},
	".nsz": {},
	".xcz": {},
}

type fsAdapter struct {
	fs      afero.Fs
	root    string
	running atomic.Bool

	log *slog.Logger
}

func NewFSAdapter(root string, log *slog.Logger) *fsAdapter {
	return NewFSAdapterWithFS(afero.NewOsFs(), root, log)
}

func NewFSAdapterWithFS(fs afero.Fs, root string, log *slog.Logger) *fsAdapter {
	return &fsAdapter{
		fs:   fs,
		root: root,
		log:  log.With(slog.String("item", "FSAdapter")),
	}
}

// Scan walks the library root and returns every recognized content entry plus
// the count of candidate files that were skipped. Per-file failures are
// swallowed; only an unreadable root is an error. At most one scan runs at a
// time, a concurrent call fails with ErrScanProcessHasAlreadyStarted.
func (a *fsAdapter) Scan(ctx context.Context) ([]*entity.ContentEntry, int, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, 0, common.ErrScanProcessHasAlreadyStarted
	}
	defer a.running.Store(false)

	startedAt := time.Now()

	if _, err := a.fs.Stat(a.root); err != nil {
		return nil, 0, fmt.Errorf("cannot open library root %s: %w", a.root, err)
	}

	var (
		entries []*entity.ContentEntry
		skipped int
	)

	walkErr := afero.Walk(a.fs, a.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == a.root {
				return fmt.Errorf("cannot walk library root: %w", err)
			}
			a.log.Warn("Skip unreadable entry", slog.String("path", path), slog.Any("error", err))

			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if _, ok := contentExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		entry, ok := a.toEntry(path, info, len(entries))
		if !ok {
			skipped++

			return nil
		}

		entries = append(entries, entry)

		return nil
	})
	if walkErr != nil {
		return nil, 0, walkErr
	}

	a.log.Info("Library scan finished",
		slog.String("root", a.root),
		slog.Int("files", len(entries)),
		slog.Int("skipped", skipped),
		slog.Duration("elapsed", time.Since(startedAt)),
	)

	return entries, skipped, nil
}

// toEntry parses one candidate file. The filename is consulted first, the
// relative path (containing directories) second.
func (a *fsAdapter) toEntry(path string, info os.FileInfo, scanIndex int) (*entity.ContentEntry, bool) {
	rel, err := filepath.Rel(a.root, path)
	if err != nil {
		a.log.Warn("Cannot normalize path", slog.String("path", path), slog.Any("error", err))

		return nil, false
	}
	rel = filepath.ToSlash(rel)

	name := info.Name()
	fromName := ParseName(name)
	fromPath := ParseName(rel)

	parsed := fromName
	if !parsed.HasID {
		parsed.ContentID = fromPath.ContentID
		parsed.HasID = fromPath.HasID
	}
	if !parsed.HasVersion {
		parsed.Version = fromPath.Version
	}

	if !parsed.HasID {
		a.log.Debug("Skip file without content id", slog.String("path", rel))

		return nil, false
	}

	return &entity.ContentEntry{
		RelativePath: rel,
		Name:         name,
		Size:         info.Size(),
		ContentID:    parsed.ContentID,
		Version:      parsed.Version,
		Kind:         ClassifyContent(parsed.ContentID, rel),
		ScanIndex:    scanIndex,
	}, true
}
