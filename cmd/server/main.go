// Command server runs the name registry HTTP service. Storage, cache,
// event bus, and oracle backends are selected by configuration: unset
// values degrade to in-process implementations so the binary runs with
// no infrastructure at all.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	escrowhandler "namedeed/internal/escrow/handler"
	escrowmetrics "namedeed/internal/escrow/metrics"
	escrowservice "namedeed/internal/escrow/service"
	"namedeed/internal/escrow/store/ledger"
	httpapi "namedeed/internal/http"
	"namedeed/internal/platform/config"
	"namedeed/internal/platform/httpserver"
	"namedeed/internal/platform/logger"
	"namedeed/internal/platform/middleware"
	"namedeed/internal/platform/redis"
	"namedeed/internal/rails"
	registryhandler "namedeed/internal/registry/handler"
	registrymetrics "namedeed/internal/registry/metrics"
	"namedeed/internal/registry/ports"
	registryservice "namedeed/internal/registry/service"
	"namedeed/internal/registry/store/name"
	"namedeed/internal/registry/store/state"
	id "namedeed/pkg/domain"
	"namedeed/pkg/platform/events"
)

// Dev-mode oracle answer: 2000 stable per native, 8 decimals.
var devOracleAnswer = big.NewInt(200_000_000_000)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	var (
		nameStore   name.Store
		stateStore  state.Store
		ledgerStore ledger.Store
		storeTx     registryservice.StoreTx
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		for _, ensure := range []func(context.Context, *sql.DB) error{
			name.EnsureSchema, state.EnsureSchema, ledger.EnsureSchema,
		} {
			if err := ensure(ctx, db); err != nil {
				return err
			}
		}
		nameStore = name.NewPostgres(db)
		stateStore = state.NewPostgres(db)
		ledgerStore = ledger.NewPostgres(db)
		storeTx = newRegistryPostgresTx(db)
		log.Info("using postgres storage")
	} else {
		nameStore = name.NewMemoryStore()
		stateStore = state.NewMemoryStore()
		ledgerStore = ledger.NewMemoryStore()
		log.Info("using in-memory storage")
	}

	if err := stateStore.Seed(ctx, cfg.AdminAccount, new(big.Int).SetUint64(cfg.InitialPrice)); err != nil {
		return fmt.Errorf("seed registry state: %w", err)
	}

	// Optional owner-lookup cache.
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		nameStore = name.NewCached(nameStore, redisClient, log)
		log.Info("owner-lookup cache enabled")
	}

	// Event bus.
	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("kafka publisher enabled", "topic", cfg.KafkaTopic)
	} else {
		mem := events.NewMemoryPublisher(events.WithAsyncBuffer(256))
		defer mem.Close()
		publisher = mem
	}

	// Payment rails and oracle. The simulations stand in until real rail
	// clients exist; they share the registry account so escrow math holds.
	stable := rails.NewSimToken(cfg.RegistryAccount)
	native := rails.NewSimNative(cfg.RegistryAccount)
	var oracle ports.PriceOracle
	if cfg.OracleURL != "" {
		oracle = rails.NewHTTPOracle(cfg.OracleURL, nil)
	} else {
		oracle = rails.NewStaticOracle(devOracleAnswer)
	}

	// Services.
	payer := escrowservice.PayFunc(func(ctx context.Context, currency id.Currency, to id.Account, amount *big.Int) error {
		if currency == id.CurrencyStable {
			return stable.Transfer(ctx, to, amount)
		}
		return native.Send(ctx, to, amount)
	})
	escrowSvc, err := escrowservice.New(ledgerStore, payer,
		escrowservice.WithLogger(log),
		escrowservice.WithMetrics(escrowmetrics.New()),
		escrowservice.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}

	registryOpts := []registryservice.Option{
		registryservice.WithLogger(log),
		registryservice.WithMetrics(registrymetrics.New()),
		registryservice.WithPublisher(publisher),
	}
	if storeTx != nil {
		registryOpts = append(registryOpts, registryservice.WithStoreTx(storeTx))
	}
	registrySvc, err := registryservice.New(
		nameStore, stateStore, escrowSvc, oracle, stable, native,
		cfg.RegistryAccount, registryOpts...,
	)
	if err != nil {
		return err
	}

	// HTTP.
	router := httpapi.NewRouter(log,
		middleware.NewHS256Validator(cfg.JWTSigningKey),
		registryhandler.New(registrySvc, log),
		escrowhandler.New(escrowSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
