package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"gameshelf/internal/adapter/fsadapter"
	"gameshelf/internal/auth"
	"gameshelf/internal/config"
	httphandler "gameshelf/internal/handler/http"
	"gameshelf/internal/repository/counter"
	"gameshelf/internal/service/library"
	"gameshelf/internal/service/titledb"
)

const (
	rescanTimeout    = 5 * time.Minute
	shutdownTimeout  = 5 * time.Second
	limiterSweepTick = 5 * time.Minute
)

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	library *library.Service
	cancel  context.CancelFunc
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	fs := afero.NewOsFs()

	var users []auth.User
	if !a.cfg.Public {
		var err error
		users, err = auth.LoadUsersFile(fs, a.cfg.UsersFile)
		if err != nil {
			panic(err)
		}
	}
	settings := auth.FromUsers(users)

	var counters httphandler.CounterRepository
	if a.cfg.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)
		if _, err = rdb.Ping(context.Background()).Result(); err != nil {
			panic(err)
		}

		counters = counter.NewRedisRepository(rdb, log)
	} else {
		counters = counter.NewMemoryRepository()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	scanner := fsadapter.NewFSAdapter(a.cfg.LibraryRoot, log)
	a.library = library.NewService(scanner, log)

	if err := a.library.Refresh(ctx); err != nil {
		panic(err)
	}

	go a.library.Run(ctx, time.Duration(a.cfg.ScanIntervalSeconds)*time.Second)

	var titles httphandler.TitleResolver
	if a.cfg.TitleDB.Enabled {
		tdb := titledb.NewService(fs, &a.cfg.TitleDB, log)
		go tdb.Run(ctx, time.Duration(a.cfg.TitleDB.RefreshIntervalSeconds)*time.Second)
		titles = tdb
	}

	limiter := httphandler.NewLimiter(a.cfg.RateLimit.PerSecond, a.cfg.RateLimit.Burst)
	go limiter.Run(ctx, limiterSweepTick)

	router := httphandler.NewRouter(httphandler.Deps{
		Library:     a.library,
		Files:       fs,
		LibraryRoot: a.cfg.LibraryRoot,
		Auth:        settings,
		Public:      a.cfg.Public,
		Limiter:     limiter,
		Counters:    counters,
		Titles:      titles,
		Log:         log,
	})

	a.srv = &http.Server{
		Addr:    a.cfg.Listen,
		Handler: router,
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

func (a *App) Rescan() {
	ctx, cancel := context.WithTimeout(context.Background(), rescanTimeout)
	defer cancel()

	if err := a.library.Refresh(ctx); err != nil {
		a.log.Error("Cannot rescan library", slog.Any("error", err))
	}
}

func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.srv.Shutdown(ctx)
}
