package titledb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"gameshelf/internal/config"
	"gameshelf/internal/entity"
)

const fetchTimeout = 2 * time.Minute

// Service maintains an optional content-id to title-metadata map used to
// decorate shop sections with names and artwork. The catalog never depends
// on it: lookups against a missing or stale map return nothing.
type Service struct {
	fs      afero.Fs
	cfg     *config.TitleDBConfig
	client  *http.Client
	current atomic.Pointer[map[string]entity.TitleInfo]

	log *slog.Logger
}

func NewService(fs afero.Fs, cfg *config.TitleDBConfig, log *slog.Logger) *Service {
	s := &Service{
		fs:     fs,
		cfg:    cfg,
		client: &http.Client{Timeout: fetchTimeout},
		log:    log.With(slog.String("item", "TitleDBService")),
	}
	empty := make(map[string]entity.TitleInfo)
	s.current.Store(&empty)

	if cfg.CacheFile != "" {
		if err := s.loadCache(); err != nil {
			s.log.Warn("Cannot load titledb cache", slog.Any("error", err))
		}
	}

	return s
}

// Lookup returns metadata for a content id when known.
func (s *Service) Lookup(contentID string) (entity.TitleInfo, bool) {
	m := *s.current.Load()
	info, ok := m[strings.ToUpper(contentID)]

	return info, ok
}

func (s *Service) Len() int {
	return len(*s.current.Load())
}

// Refresh fetches the title map from the configured URL, swaps it in and
// rewrites the cache file. Failures leave the current map untouched.
func (s *Service) Refresh(ctx context.Context) error {
	if s.cfg.URL == "" {
		return fmt.Errorf("titledb url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("cannot build titledb request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot fetch titledb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("titledb fetch returned status %d", resp.StatusCode)
	}

	var raw map[string]entity.TitleInfo
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("cannot decode titledb payload: %w", err)
	}

	s.store(raw)

	if s.cfg.CacheFile != "" {
		if err := s.writeCache(raw); err != nil {
			s.log.Warn("Cannot write titledb cache", slog.Any("error", err))
		}
	}

	s.log.Info("TitleDB refreshed", slog.Int("titles", s.Len()))

	return nil
}

// Run refreshes on the configured interval until ctx is cancelled. An
// immediate refresh happens first so a fresh install is not empty for a
// whole interval.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	s.refreshOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
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
		s.log.Error("Cannot refresh titledb", slog.Any("error", err))
	}
}

func (s *Service) loadCache() error {
	data, err := afero.ReadFile(s.fs, s.cfg.CacheFile)
	if err != nil {
		return fmt.Errorf("cannot read cache file: %w", err)
	}

	var raw map[string]entity.TitleInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot parse cache file: %w", err)
	}

	s.store(raw)
	s.log.Info("TitleDB cache loaded", slog.Int("titles", s.Len()))

	return nil
}

func (s *Service) writeCache(raw map[string]entity.TitleInfo) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("cannot marshal cache: %w", err)
	}

	return afero.WriteFile(s.fs, s.cfg.CacheFile, data, 0o644)
}

func (s *Service) store(raw map[string]entity.TitleInfo) {
	normalized := make(map[string]entity.TitleInfo, len(raw))
	for id, info := range raw {
		normalized[strings.ToUpper(id)] = info
	}

	s.current.Store(&normalized)
}
