// Command symbols prints the currency symbols supported by the exchange rates API.
//
// It takes no flags; configuration comes from the environment (optionally a
// .env file). Failures are printed as "Error: <message>" and the process
// still exits 0, so scripts that only look at stdout keep working. Setting
// STRICT_EXIT=true makes a failed lookup exit 1 instead.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lutefd/exchange-symbols/internal/commons"
	"github.com/Lutefd/exchange-symbols/internal/logger"
	"github.com/Lutefd/exchange-symbols/internal/report"
	"github.com/Lutefd/exchange-symbols/internal/repository"
	"github.com/Lutefd/exchange-symbols/internal/service"
	"github.com/Lutefd/exchange-symbols/internal/worker"
	"github.com/joho/godotenv"
)

const (
	exitOK     = 0
	exitFailed = 1
)

type dependencies struct {
	loadEnv     func(...string) error
	loadConfig  func() (commons.Config, error)
	openLogRepo func(ctx context.Context, connURL string) (repository.LogRepository, error)
	newClient   func(config commons.Config) worker.SymbolsClient
	stdout      io.Writer
	sinkTimeout time.Duration
}

var defaultDeps = dependencies{
	loadEnv:    godotenv.Load,
	loadConfig: commons.LoadConfig,
	openLogRepo: func(ctx context.Context, connURL string) (repository.LogRepository, error) {
		repo, err := repository.NewPostgresLogRepository(ctx, connURL, nil)
		if err != nil {
			return nil, err
		}
		return repo, nil
	},
	newClient: func(config commons.Config) worker.SymbolsClient {
		return worker.NewAPILayerClient(config)
	},
	stdout:      os.Stdout,
	sinkTimeout: commons.LogSinkConnectTimeout,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, defaultDeps)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, deps dependencies) int {
	if err := deps.loadEnv(".env"); err != nil {
		logger.Infof("no .env file loaded: %v", err)
	}

	config, err := deps.loadConfig()
	if err != nil {
		renderError(deps.stdout, err)
		return exitOK
	}
	if config.APIKey == "" {
		logger.Error("API_KEY is not set, sending the request without a key")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if config.LogSinkEnabled() {
		startLogSink(ctx, deps, config)
		defer shutdownLogSink()
	}

	client := deps.newClient(config)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Errorf("failed to release http client: %v", err)
		}
	}()

	var symbolsService service.SymbolsServiceInterface = service.NewSymbolsService(client)
	lookup := func(ctx context.Context) bool {
		result := symbolsService.Lookup(ctx)
		if err := report.Render(deps.stdout, result); err != nil {
			logger.Errorf("failed to write report: %v", err)
		}
		return result.Failed()
	}

	if config.Schedule != "" {
		scheduler, err := worker.NewScheduler(config.Schedule, func(ctx context.Context) { lookup(ctx) })
		if err != nil {
			renderError(deps.stdout, err)
			return exitCode(config, true)
		}
		logger.Infof("running symbols lookup on schedule %q", config.Schedule)
		scheduler.Start(ctx)
		return exitOK
	}

	return exitCode(config, lookup(ctx))
}

func renderError(w io.Writer, err error) {
	if werr := report.RenderError(w, err); werr != nil {
		logger.Errorf("failed to write report: %v", werr)
	}
}

func exitCode(config commons.Config, failed bool) int {
	if failed && config.StrictExit {
		return exitFailed
	}
	return exitOK
}

// startLogSink is best effort: without a database the tool still runs and
// logs to the console only. Opening the sink is bounded by deps.sinkTimeout
// so an unresponsive database cannot hold up the lookup.
func startLogSink(ctx context.Context, deps dependencies, config commons.Config) {
	logRepo, err := openLogSink(ctx, deps, config.PostgresConn)
	if err != nil {
		logger.Errorf("log sink disabled: %v", err)
		return
	}
	logger.InitLogger(logRepo)

	if err := logger.NewPartitionManager(logRepo).Start(ctx); err != nil {
		logger.Errorf("failed to start partition manager: %v", err)
	}
}

type openedSink struct {
	repo repository.LogRepository
	err  error
}

func openLogSink(ctx context.Context, deps dependencies, connURL string) (repository.LogRepository, error) {
	timeout := deps.sinkTimeout
	if timeout <= 0 {
		timeout = commons.LogSinkConnectTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opened := make(chan openedSink, 1)
	go func() {
		repo, err := deps.openLogRepo(openCtx, connURL)
		opened <- openedSink{repo: repo, err: err}
	}()

	select {
	case o := <-opened:
		return o.repo, o.err
	case <-openCtx.Done():
		// the driver may still hand back a connection after we gave up on it
		go func() {
			if o := <-opened; o.err == nil && o.repo != nil {
				o.repo.Close()
			}
		}()
		return nil, fmt.Errorf("log sink did not respond within %s: %w", timeout, openCtx.Err())
	}
}

func shutdownLogSink() {
	ctx, cancel := context.WithTimeout(context.Background(), commons.ShutdownTimeout)
	defer cancel()
	if err := logger.Shutdown(ctx); err != nil {
		logger.ErrorLogger.Printf("failed to flush logs: %v", err)
	}
}
