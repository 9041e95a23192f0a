package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/ledger"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
	"google.golang.org/grpc"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	worker     *eventadapter.Worker
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	repos := postgres.NewRepositories()

	params := domain.Params{
		Authority:            cfg.AuthorityID,
		Treasury:             cfg.TreasuryID,
		ChallengerStake:      cfg.ChallengerStake,
		RespondentStake:      cfg.RespondentStake,
		FeeRateBps:           cfg.FeeRateBps,
		MinJurorReputation:   cfg.MinJurorReputation,
		MaxActiveAssignments: cfg.MaxActiveAssignments,
		JurySize:             cfg.JurySize,
		MajorityReward:       cfg.MajorityReward,
		MinoritySlash:        cfg.MinoritySlash,
		NoVoteSlash:          cfg.NoVoteSlash,
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protocol params: %w", err)
	}
	if err := repos.Params.Put(ctx, params); err != nil {
		return nil, err
	}

	var idempotency ports.IdempotencyRepository = repos.Idempotency
	var eventDedup ports.EventDedupRepository = repos.EventDedup
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		idempotency = cache.NewRedisIdempotencyStore(client)
		eventDedup = cache.NewRedisEventDedupStore(client)
	}

	var domainPublisher ports.DomainPublisher
	var analyticsPublisher ports.AnalyticsPublisher
	var dlqPublisher ports.DLQPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			domain.EventDisputeOpened:          "tribunal.disputes",
			domain.EventDisputeDefended:        "tribunal.disputes",
			domain.EventDisputeResolved:        "tribunal.disputes",
			domain.EventDisputeCancelled:       "tribunal.disputes",
			domain.EventJuryAssigned:           "tribunal.juries",
			domain.EventVoteSubmitted:          "tribunal.juries",
			domain.EventJuryDecided:            "tribunal.juries",
			domain.EventJurorRegistered:        "tribunal.jurors",
			domain.EventJurorReputationUpdated: "tribunal.jurors",
			domain.EventJurorRewarded:          "tribunal.jurors",
			domain.EventJurorSlashed:           "tribunal.jurors",
		}, cfg.DLQTopic)
		if err != nil {
			return nil, err
		}
		domainPublisher = publisher
		analyticsPublisher = publisher
		dlqPublisher = publisher
	} else {
		domainPublisher = eventadapter.NewMemoryDomainPublisher()
		analyticsPublisher = eventadapter.NewMemoryAnalyticsPublisher()
		dlqPublisher = eventadapter.NewLoggingDLQPublisher(logger)
	}

	var assetLedger ports.AssetLedger
	if cfg.LedgerGRPCURL != "" {
		assetLedger = grpcadapter.NewFinanceLedgerClient(cfg.LedgerGRPCURL)
	} else {
		assetLedger = ledger.NewMemoryLedger(cfg.EscrowAccountID)
	}
	var registry ports.ContentRegistry
	if cfg.RegistryGRPCURL != "" {
		registry = grpcadapter.NewContentRegistryClient(cfg.RegistryGRPCURL)
	}

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:              cfg.ServiceID,
			EscrowAccountID:          cfg.EscrowAccountID,
			IdempotencyTTL:           cfg.IdempotencyTTL,
			EventDedupTTL:            cfg.EventDedupTTL,
			OutboxFlushBatchSize:     cfg.OutboxFlushBatchSize,
			SettlementRetryBatchSize: cfg.SettlementRetryBatchSize,
		},
		Disputes:     repos.Disputes,
		Juries:       repos.Juries,
		Jurors:       repos.Jurors,
		Params:       repos.Params,
		Idempotency:  idempotency,
		EventDedup:   eventDedup,
		Outbox:       repos.Outbox,
		Ledger:       assetLedger,
		Registry:     registry,
		DomainEvents: domainPublisher,
		Analytics:    analyticsPublisher,
		DLQ:          dlqPublisher,
	})

	verifier := security.NewBearerVerifier(cfg.JWTSecret)
	handler := httpadapter.NewHandler(service)
	router := httpadapter.NewRouter(handler, verifier)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	grpcadapter.Register(grpcServer, grpcadapter.NewTribunalInternalServer(service))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, err
	}

	var consumer ports.EventConsumer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaConsumer, err := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, []string{"tribunal.inbound"})
		if err != nil {
			return nil, err
		}
		consumer = kafkaConsumer
	} else {
		consumer = eventadapter.NewMemoryConsumer()
	}
	worker := eventadapter.NewWorker(logger, consumer, dlqPublisher, service, cfg.ConsumerPollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		worker:     worker,
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		if err := r.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
