package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"

	"gameshelf/internal/auth"
)

// Deps carries everything the HTTP surface needs. The auth settings and
// public flag are fixed at startup; there is no runtime toggling.
type Deps struct {
	Library     CatalogProvider
	Files       afero.Fs
	LibraryRoot string
	Auth        *auth.Settings
	Public      bool
	Limiter     *Limiter
	Counters    CounterRepository
	Titles      TitleResolver

	Log *slog.Logger
}

// NewRouter wires the catalog and download endpoints together with their
// compatibility aliases. Every route passes the rate limiter; all routes
// except /health additionally pass the auth guard unless public mode is on.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID(d.Log))
	r.Use(RateLimit(d.Limiter, d.Log))

	r.Get("/health", NewHealthHandler(d.Library))

	shopRoot := NewShopRootHandler(d.Library, d.Log)
	catalogAll := NewCatalogHandler(d.Library, d.Log)
	download := NewDownloadHandler(d.Files, d.LibraryRoot, d.Library, d.Counters, d.Log)

	r.Group(func(r chi.Router) {
		if !d.Public {
			r.Use(BasicAuth(d.Auth, d.Log))
		}

		r.Get("/", shopRoot)
		r.Get("/shop", shopRoot)
		r.Get("/api/shop", shopRoot)

		r.Get("/api/catalog", catalogAll)
		r.Get("/index", catalogAll)
		r.Get("/titles", catalogAll)
		r.Get("/api/index", catalogAll)
		r.Get("/api/titles", catalogAll)

		r.Get("/api/sections", NewSectionsHandler(d.Log))
		r.Get("/api/sections/{section}", NewSectionHandler(d.Library, d.Log))
		r.Get("/api/shop/sections", NewShopSectionsHandler(d.Library, d.Titles, d.Counters, d.Log))
		r.Get("/api/search", NewSearchHandler(d.Library, d.Log))
		r.Get("/api/title/{titleID}/versions", NewTitleVersionsHandler(d.Library, d.Log))
		r.Get("/api/stats", NewStatsHandler(d.Counters, d.Log))

		r.Get("/api/download/*", download)
		r.Get("/download/*", download)
		r.Get("/api/get_game/{id}", NewGetGameHandler(d.Files, d.LibraryRoot, d.Library, d.Counters, d.Log))
	})

	return r
}
