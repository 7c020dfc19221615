package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gameshelf/internal/catalog"
	"gameshelf/internal/common"
	"gameshelf/internal/entity"
)

type Scanner interface {
	Scan(ctx context.Context) ([]*entity.ContentEntry, int, error)
}

// Service owns the currently visible catalog snapshot. Readers get the
// snapshot through Current without locking; Refresh builds a new snapshot
// off to the side and swaps it in atomically, so a reader observes either
// the old or the new catalog, never a partial one.
type Service struct {
	scanner Scanner
	current atomic.Pointer[catalog.Catalog]

	log *slog.Logger
}

func NewService(scanner Scanner, log *slog.Logger) *Service {
	s := &Service{
		scanner: scanner,
		log:     log.With(slog.String("item", "LibraryService")),
	}
	s.current.Store(catalog.Empty())

	return s
}

// Current returns the visible snapshot. Cheap, never blocks on a refresh.
func (s *Service) Current() *catalog.Catalog {
	return s.current.Load()
}

// Refresh scans the library and swaps in the new catalog. On any failure the
// previous snapshot stays visible unchanged.
func (s *Service) Refresh(ctx context.Context) error {
	entries, skipped, err := s.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("cannot scan library: %w", err)
	}

	c := catalog.Build(entries)
	s.current.Store(c)

	s.log.Info("Catalog refreshed",
		slog.Int("files", c.Len()),
		slog.Int("scanned", len(entries)),
		slog.Int("skipped", skipped),
	)

	return nil
}

// Run refreshes the catalog on a fixed interval until ctx is cancelled. A
// failed or panicking iteration is logged and the loop keeps scheduling; the
// server serves the last good snapshot indefinitely. Ticks that arrive while
// a scan is still running are skipped.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("Refresh loop started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Refresh loop stopped")

			return
		case <-ticker.C:
			s.refreshOnce(ctx)
		}
	}
}

func (s *Service) refreshOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Refresh iteration panicked", slog.Any("panic", r))
		}
	}()

	if err := s.Refresh(ctx); err != nil {
		if errors.Is(err, common.ErrScanProcessHasAlreadyStarted) {
			s.log.Debug("Skip refresh tick, previous scan still running")

			return
		}

		s.log.Error("Cannot refresh catalog, keeping previous snapshot", slog.Any("error", err))
	}
}
