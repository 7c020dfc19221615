package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"

	"gameshelf/internal/catalog"
	"gameshelf/internal/entity"
	"gameshelf/internal/util"
)

const defaultSectionLimit = 50

var contentIDParamRegexp = regexp.MustCompile(`^[0-9a-fA-F]{16}$`)

type CatalogProvider interface {
	Current() *catalog.Catalog
}

type CounterRepository interface {
	Inc(ctx context.Context, id string) (int64, error)
	All(ctx context.Context) (map[string]int64, error)
}

type TitleResolver interface {
	Lookup(contentID string) (entity.TitleInfo, bool)
}

func NewHealthHandler(lib CatalogProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:       "ok",
			CatalogFiles: lib.Current().Len(),
		})
	}
}

// NewShopRootHandler serves the legacy root payload: a bare file list over
// the deduped catalog, with shop-style download URLs.
func NewShopRootHandler(lib CatalogProvider, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ShopRootHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		entries := lib.Current().Entries()

		files := make([]rootFile, 0, len(entries))
		for i, e := range entries {
			files = append(files, rootFile{
				URL:  shopGameURL(i+1, e.Name),
				Size: e.Size,
			})
		}

		log.Debug("Shop root requested", slog.Int("files", len(files)))
		writeJSON(w, http.StatusOK, rootResponse{Success: true, Files: files})
	}
}

func NewCatalogHandler(lib CatalogProvider, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "CatalogHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		entries := toAPIEntries(lib.Current().Entries())

		log.Debug("Catalog requested", slog.Int("entries", len(entries)))
		writeJSON(w, http.StatusOK, buildCatalogResponse(entries))
	}
}

func NewSectionsHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sectionsResponse{Sections: sectionInfos()})
	}
}

func NewSectionHandler(lib CatalogProvider, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "SectionHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		section := catalog.SectionID(chi.URLParam(r, "section"))
		entries := toAPIEntries(lib.Current().Section(section))

		log.Debug("Section requested",
			slog.String("section", string(section)),
			slog.Int("entries", len(entries)),
		)
		writeJSON(w, http.StatusOK, buildCatalogResponse(entries))
	}
}

// NewShopSectionsHandler builds the nested items payload shop front pages
// render, decorated with titledb metadata and download counters when
// available.
func NewShopSectionsHandler(lib CatalogProvider, titles TitleResolver, counters CounterRepository, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ShopSectionsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultSectionLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		snapshot := lib.Current()

		downloadCounts, err := counters.All(r.Context())
		if err != nil {
			log.Error("Cannot get download counters", slog.Any("error", err))
			downloadCounts = map[string]int64{}
		}

		fileIDs := make(map[*entity.ContentEntry]int, snapshot.Len())
		for i, e := range snapshot.Entries() {
			fileIDs[e] = i + 1
		}

		toItems := func(entries []*entity.ContentEntry, max int) []shopItem {
			if len(entries) > max {
				entries = entries[:max]
			}

			items := make([]shopItem, 0, len(entries))
			for _, e := range entries {
				items = append(items, buildShopItem(e, fileIDs[e], titles, downloadCounts))
			}

			return items
		}

		sections := make([]shopSection, 0)
		for _, info := range catalog.SectionInfos() {
			entries := snapshot.Section(info.ID)
			section := shopSection{
				ID:    string(info.ID),
				Title: info.Label,
			}

			// The all section is served whole, with its own metadata.
			if info.ID == catalog.SectionAll {
				section.Items = toItems(entries, len(entries))
				total := len(section.Items)
				truncated := false
				section.Total = &total
				section.Truncated = &truncated
			} else {
				section.Items = toItems(entries, limit)
			}

			sections = append(sections, section)
		}

		log.Debug("Shop sections requested", slog.Int("limit", limit))
		writeJSON(w, http.StatusOK, shopSectionsResponse{Sections: sections})
	}
}

func NewSearchHandler(lib CatalogProvider, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "SearchHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		entries := toAPIEntries(lib.Current().Search(query))

		log.Debug("Search requested", slog.String("query", query), slog.Int("results", len(entries)))
		writeJSON(w, http.StatusOK, searchResponse{
			Query:   query,
			Success: "ok",
			Files:   entries,
			Entries: entries,
		})
	}
}

func NewTitleVersionsHandler(lib CatalogProvider, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "TitleVersionsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		titleID := chi.URLParam(r, "titleID")

		versions, ok := lib.Current().Versions(titleID)
		if !ok {
			writeError(w, http.StatusNotFound, "title not found")

			return
		}

		log.Debug("Title versions requested",
			slog.String("title_id", versions.TitleID),
			slog.Int("versions", len(versions.Files)),
		)
		writeJSON(w, http.StatusOK, versionsResponse{
			TitleID: versions.TitleID,
			Files:   toAPIEntries(versions.Files),
		})
	}
}

// NewDownloadHandler resolves a library-relative path against the catalog
// and streams the file with range support. Paths outside the catalog are a
// 404 even when a matching file exists on disk.
func NewDownloadHandler(fs afero.Fs, root string, lib CatalogProvider, counters CounterRepository, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "DownloadHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requested := chi.URLParam(r, "*")
		if decoded, err := url.PathUnescape(requested); err == nil {
			requested = decoded
		}

		relativePath, err := sanitizePath(requested)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid path")

			return
		}

		entry, ok := lib.Current().EntryByPath(relativePath)
		if !ok {
			writeError(w, http.StatusNotFound, "not found")

			return
		}

		serveEntry(w, r, fs, root, entry, counters, log)
	}
}

// NewGetGameHandler resolves the 1-based file id used in shop URLs, or a
// 16-hex content id, to the latest matching entry.
func NewGetGameHandler(fs afero.Fs, root string, lib CatalogProvider, counters CounterRepository, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "GetGameHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		snapshot := lib.Current()

		var (
			entry *entity.ContentEntry
			ok    bool
		)
		if fileID, err := strconv.Atoi(id); err == nil {
			entry, ok = snapshot.EntryByID(fileID)
		}
		// An all-decimal content id also parses as a number, so a failed
		// file id lookup still gets the content id resolution.
		if !ok && contentIDParamRegexp.MatchString(id) {
			entry, ok = snapshot.Latest(id)
		}

		if !ok {
			writeError(w, http.StatusNotFound, "not found")

			return
		}

		serveEntry(w, r, fs, root, entry, counters, log)
	}
}

func NewStatsHandler(counters CounterRepository, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "StatsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		all, err := counters.All(r.Context())
		if err != nil {
			log.Error("Cannot get download counters", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "internal server error")

			return
		}

		writeJSON(w, http.StatusOK, all)
	}
}

func serveEntry(w http.ResponseWriter, r *http.Request, fs afero.Fs, root string, entry *entity.ContentEntry, counters CounterRepository, log *slog.Logger) {
	counterID := util.GetIDFromString(&entry.RelativePath)
	count, err := counters.Inc(r.Context(), counterID)
	if err != nil {
		// Counters are a statistic, never a reason to fail a download.
		log.Error("Cannot increment download counter",
			slog.String("path", entry.RelativePath),
			slog.Any("error", err),
		)
	}

	log.Info("Download requested",
		slog.String("path", entry.RelativePath),
		slog.String("content_id", entry.ContentID),
		slog.String("range", r.Header.Get("Range")),
		slog.Int64("downloads", count),
	)

	streamFile(w, r, fs, joinLibraryPath(root, entry.RelativePath), log)
}

func buildShopItem(e *entity.ContentEntry, fileID int, titles TitleResolver, downloadCounts map[string]int64) shopItem {
	item := shopItem{
		Name:          e.Name,
		TitleName:     e.Name,
		TitleID:       e.TitleID,
		AppID:         e.ContentID,
		AppVersion:    strconv.FormatUint(uint64(e.Version), 10),
		AppType:       appTypeFor(e.Kind),
		URL:           shopGameURL(fileID, e.Name),
		Size:          e.Size,
		FileID:        fileID,
		Filename:      e.Name,
		DownloadCount: downloadCounts[util.GetIDFromString(&e.RelativePath)],
	}

	if titles != nil {
		if info, ok := titles.Lookup(e.ContentID); ok {
			if info.Name != "" {
				item.TitleName = info.Name
			}
			item.IconURL = info.IconURL
		}
	}
	item.IconURLCamel = item.IconURL

	return item
}
