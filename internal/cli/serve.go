package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pathwaygraph/pkg/cache"
	"github.com/matzehuels/pathwaygraph/pkg/observability"
	"github.com/matzehuels/pathwaygraph/pkg/server"
	"github.com/matzehuels/pathwaygraph/pkg/session"
	"github.com/matzehuels/pathwaygraph/pkg/source"
)

// sessionCleanupInterval is how often expired sessions are swept.
const sessionCleanupInterval = 10 * time.Minute

// serveOpts holds the serve flags; empty values fall back to the config.
type serveOpts struct {
	addr     string
	pathways string
	engine   string
	sessions string
	noCache  bool
}

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Stateless endpoints lay out and render pathways sent inline or loaded by id
from --pathways (a directory of JSON/YAML files) or the configured MongoDB
collection. Session endpoints keep the expansion state, the measured
dimensions and the viewport width of one viewer between requests, in memory,
on disk or in Redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.pathways, "pathways", "", "directory of pathway files served by id")
	cmd.Flags().StringVar(&opts.engine, "engine", "", "default layout engine: dot, layered")
	cmd.Flags().StringVar(&opts.sessions, "sessions", "", "session store: memory, file, redis")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg := c.Config.Server
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if opts.pathways != "" {
		cfg.PathwaysDir = opts.pathways
	}
	if opts.sessions != "" {
		cfg.Sessions = opts.sessions
	}
	engine := opts.engine
	if engine == "" {
		engine = c.Config.Layout.Engine
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, engine, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	sessions, closeSessions, err := c.newSessionStore(ctx, cfg, runner.Cache)
	if err != nil {
		return err
	}
	defer closeSessions()

	src, closeSource, err := c.newSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	var metrics http.Handler
	if cfg.Metrics {
		p := observability.NewPrometheus()
		p.Register()
		defer observability.Reset()
		metrics = p.Handler()
	}

	srv, err := server.New(server.Config{
		Runner:     runner,
		Sessions:   sessions,
		Source:     src,
		Metrics:    metrics,
		Logger:     c.Logger,
		SessionTTL: ttl,
		Engine:     engine,
	})
	if err != nil {
		return err
	}

	go sweepSessions(ctx, sessions)

	printInfo("Serving on %s", cfg.Addr)
	printKeyValue("engine", engine)
	printKeyValue("sessions", cfg.Sessions)
	printKeyValue("cache", c.cacheBackend(opts.noCache))
	return srv.ListenAndServe(ctx, cfg.Addr)
}

func (c *CLI) cacheBackend(noCache bool) string {
	if noCache {
		return "none"
	}
	return c.Config.Cache.Backend
}

// newSessionStore builds the configured store. Redis sessions share the
// runner's client when the cache is Redis too.
func (c *CLI) newSessionStore(ctx context.Context, cfg ServerConfig, ch cache.Cache) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.Sessions {
	case "file":
		fs, err := session.NewFileStore(cfg.SessionDir)
		if err != nil {
			return nil, noop, err
		}
		c.Logger.Debug("file sessions", "dir", fs.Path())
		return fs, func() { fs.Close() }, nil
	case "redis":
		if rc, ok := ch.(*cache.RedisCache); ok {
			return session.NewRedisStore(rc.Client(), session.DefaultRedisPrefix), noop, nil
		}
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connect session store: %w", err)
		}
		return session.NewRedisStore(rc.Client(), session.DefaultRedisPrefix), func() { rc.Close() }, nil
	case "memory", "":
		return session.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("invalid session store: %q (must be one of: memory, file, redis)", cfg.Sessions)
	}
}

// newSource returns the pathway source for pathway_id lookups: MongoDB
// when configured, else the pathways directory, else none.
func (c *CLI) newSource(ctx context.Context, cfg ServerConfig) (source.Source, func(), error) {
	noop := func() {}
	switch {
	case cfg.MongoURI != "":
		m, err := source.NewMongo(ctx, source.MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, noop, err
		}
		return m, func() { m.Close(context.Background()) }, nil
	case cfg.PathwaysDir != "":
		return source.NewFiles(cfg.PathwaysDir), noop, nil
	}
	return nil, noop, nil
}

// sweepSessions removes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, store session.Store) {
	logger := loggerFromContext(ctx)
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Cleanup(ctx); err != nil {
				logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}
