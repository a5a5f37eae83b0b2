package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/layer-3/nftgate/adapters/chain"
	"github.com/layer-3/nftgate/adapters/events"
	"github.com/layer-3/nftgate/adapters/metrics"
	"github.com/layer-3/nftgate/adapters/osint"
	"github.com/layer-3/nftgate/adapters/store"
	"github.com/layer-3/nftgate/adapters/tokenizer"
	"github.com/layer-3/nftgate/config"
	"github.com/layer-3/nftgate/ports"
	"github.com/layer-3/nftgate/service"
	transport "github.com/layer-3/nftgate/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	recorder := metrics.NewRecorder()
	httpClient := chain.NewHTTPClient()

	// Missing secrets disable the affected paths; requests on them fail closed
	codec, err := newSessionCodec(cfg)
	if err != nil {
		logger.Warn("OSINT_SESSION_SECRET not set, logins and gated calls will fail")
	}

	var searchClient ports.SearchClient
	if client, err := osint.NewClient(cfg.APIURL, cfg.APIToken, cfg.UpstreamTimeout, httpClient); err == nil {
		searchClient = client
	} else {
		logger.Warn("OSINT_API_TOKEN not set, search is unavailable")
	}

	var verifier *service.PaymentVerifier
	if cfg.ReceiptRPCURL != "" {
		receipts, err := chain.NewReceiptClient(ctx, cfg.ReceiptRPCURL, cfg.RPCTimeout, httpClient)
		if err != nil {
			return fmt.Errorf("failed to create receipt client: %w", err)
		}
		defer receipts.Close()
		verifier = service.NewPaymentVerifier(receipts, recorder)
	} else {
		logger.Warn("BASE_RPC_URL not set, paid calls are unavailable")
	}

	var ledger ports.SpentLedger
	if cfg.Payment.ReplayProtection {
		ledger = store.NewSpentLedger()
	}

	sink, err := newEventSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sink.Close()
	if sink.Subscriber != nil {
		if err := events.RunAuditLog(ctx, sink.Subscriber, logger); err != nil {
			return err
		}
	}
	eventPub := events.NewWatermillPublisher(sink.Publisher)

	rateStore := store.NewMemoryStore(logger)
	rateStore.StartSweeper(ctx, cfg.RateLimit.SweepInterval)

	resolver := service.NewBalanceResolver(
		chain.NewRPCClient(cfg.RPCTimeout, httpClient),
		cfg.Chains,
		service.AttemptPolicy{EndpointTimeout: cfg.RPCTimeout, ChainConcurrency: cfg.ChainConcurrency},
		recorder,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := transport.SetupRouter(transport.Dependencies{
		Auth:     service.NewAuthService(resolver, codec, eventPub, logger),
		Search:   service.NewSearchService(searchClient),
		Payments: service.NewPaymentService(verifier, cfg.PaymentExpectation(), ledger, searchClient, eventPub, logger),
		Limiter:  service.NewRateLimiter(rateStore, cfg.NFTProfile(), cfg.RegularProfile(), recorder),
		Metrics:  recorder,
		Log:      logger,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":         cfg.HTTPAddr,
			"chains":       len(cfg.Chains),
			"token_format": cfg.TokenFormat,
		}).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newSessionCodec(cfg config.Config) (ports.SessionCodec, error) {
	if cfg.TokenFormat == config.TokenFormatJWT {
		return tokenizer.NewJWTCodec(cfg.SessionSecret)
	}
	return tokenizer.NewOpaqueCodec(cfg.SessionSecret)
}

func newEventSink(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*events.Sink, error) {
	adapter := events.NewLogrusAdapter(logger)
	if cfg.EventsRedisURL == "" {
		return events.NewInProcessSink(adapter), nil
	}
	sink, err := events.NewRedisStreamSink(ctx, cfg.EventsRedisURL, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create event sink: %w", err)
	}
	return sink, nil
}
