package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/internal/form"
	"github.com/feildrixliemdra/library-admin/internal/notify"
	"github.com/feildrixliemdra/library-admin/internal/query"
	"github.com/feildrixliemdra/library-admin/pkg/library"
	"github.com/feildrixliemdra/library-admin/pkg/libraryclient"
)

// App holds everything a command needs to talk to the library API.
type App struct {
	Config    *Config
	Logger    zapLogger
	Client    library.Client
	Backend   library.Cache
	Cache     *query.Cache
	Notifier  *notify.Notifier
	Mutations *query.Mutations
	Validator *form.Validator

	// Metrics is set when --verbose is on.
	Metrics *library.MetricsCollector

	zap *zap.Logger
}

// newApp builds the application from the effective configuration. errOut
// receives user-facing notifications.
func newApp(errOut io.Writer) (*App, error) {
	config := loadConfig()
	if config.APIHost == "" {
		return nil, constants.ErrNoAPIHostConfigured
	}

	verbose := viper.GetBool("verbose")

	zapLog, err := newZapLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger := newLibraryLogger(zapLog)

	backend, err := library.NewCacheFromConfig(config.cacheConfig())
	if err != nil {
		_ = zapLog.Sync()

		return nil, fmt.Errorf("failed to create cache backend: %w", err)
	}

	interceptors, metrics, err := newInterceptorChain(config, verbose, logger)
	if err != nil {
		closeBackend(backend)
		_ = zapLog.Sync()

		return nil, err
	}

	client, err := libraryclient.New(&library.Config{
		APIHost:      config.APIHost,
		HTTPTimeout:  constants.DefaultHTTPTimeout,
		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
		Revalidator: library.RevalidatorFunc(func(ctx context.Context, tag string) {
			if tag != library.BooksTag {
				return
			}

			err := backend.Clear(ctx)
			if err != nil {
				logger.Warn("failed to purge cache backend", map[string]interface{}{"error": err.Error()})
			}
		}),
		Interceptors: interceptors,
		Debug:        verbose,
		Logger:       logger,
	})
	if err != nil {
		closeBackend(backend)
		_ = zapLog.Sync()

		return nil, err
	}

	cache := query.NewCache(client.Books(),
		query.WithBackend(backend),
		query.WithLogger(logger),
		query.WithPersistTTL(constants.PersistTTL),
	)

	notifier := notify.New(
		notify.NewWriterSink(errOut, config.NoColor || viper.GetBool("no_color")),
		notify.LoggerSink{Logger: logger},
	)

	return &App{
		Config:    config,
		Logger:    logger,
		Client:    client,
		Backend:   backend,
		Cache:     cache,
		Notifier:  notifier,
		Mutations: query.NewMutations(client.Books(), cache, notifier),
		Validator: form.NewValidator(),
		Metrics:   metrics,
		zap:       zapLog,
	}, nil
}

// newInterceptorChain builds the interceptors for the API client. It returns a
// nil chain when nothing is enabled.
func newInterceptorChain(config *Config, verbose bool, logger library.Logger) (*library.InterceptorChain, *library.MetricsCollector, error) {
	chain := library.NewInterceptorChain()

	var metrics *library.MetricsCollector

	if config.RateLimit > 0 {
		limit, err := library.RateLimitInterceptor(config.RateLimit, constants.RateLimitBurst)
		if err != nil {
			return nil, nil, err
		}

		chain.AddRequestInterceptor(limit)
	}

	if verbose {
		chain.AddRequestInterceptor(library.LoggingInterceptor(logger))
		chain.AddResponseInterceptor(library.LoggingResponseInterceptor(logger))

		metrics = library.NewMetricsCollector()
		metrics.Install(chain)
	}

	if chain.Empty() {
		return nil, nil, nil
	}

	return chain, metrics, nil
}

// Close logs request metrics and releases the cache and its backend.
func (a *App) Close() {
	if a.Metrics != nil {
		for _, operation := range a.Metrics.Operations() {
			metrics := a.Metrics.GetMetrics(operation)
			a.Logger.Debug("request metrics", map[string]interface{}{
				"operation":       operation,
				"requests":        metrics.TotalRequests,
				"errors":          metrics.TotalErrors,
				"average_latency": metrics.AverageLatency.String(),
			})
		}
	}

	a.Cache.Close()
	closeBackend(a.Backend)
	_ = a.zap.Sync()
}

func closeBackend(backend library.Cache) {
	if closer, ok := backend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}

// pageSize returns the page size to use when no --limit was given.
func (a *App) pageSize(limit int) int {
	if limit > 0 {
		return limit
	}

	return a.Config.PageSize
}
