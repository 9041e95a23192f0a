package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string
	HTTPPort  int
	GRPCPort  int

	RedisURL        string
	KafkaBrokers    []string
	KafkaGroupID    string
	DLQTopic        string
	LedgerGRPCURL   string
	RegistryGRPCURL string

	EscrowAccountID string
	JWTSecret       string

	AuthorityID          string
	TreasuryID           string
	ChallengerStake      int64
	RespondentStake      int64
	FeeRateBps           int64
	MinJurorReputation   int64
	MaxActiveAssignments int
	JurySize             int
	MajorityReward       int64
	MinoritySlash        int64
	NoVoteSlash          int64

	IdempotencyTTL           time.Duration
	EventDedupTTL            time.Duration
	ConsumerPollInterval     time.Duration
	OutboxFlushBatchSize     int
	SettlementRetryBatchSize int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		RedisURL        string   `yaml:"redis_url"`
		KafkaBrokers    []string `yaml:"kafka_brokers"`
		KafkaGroupID    string   `yaml:"kafka_group_id"`
		DLQTopic        string   `yaml:"dlq_topic"`
		LedgerGRPCURL   string   `yaml:"ledger_grpc_url"`
		RegistryGRPCURL string   `yaml:"registry_grpc_url"`
	} `yaml:"dependencies"`
	Escrow struct {
		AccountID string `yaml:"account_id"`
	} `yaml:"escrow"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Protocol struct {
		AuthorityID          string `yaml:"authority_id"`
		TreasuryID           string `yaml:"treasury_id"`
		ChallengerStake      int64  `yaml:"challenger_stake"`
		RespondentStake      int64  `yaml:"respondent_stake"`
		FeeRateBps           int64  `yaml:"fee_rate_bps"`
		MinJurorReputation   int64  `yaml:"min_juror_reputation"`
		MaxActiveAssignments int    `yaml:"max_active_assignments"`
		JurySize             int    `yaml:"jury_size"`
		MajorityReward       int64  `yaml:"majority_reward"`
		MinoritySlash        int64  `yaml:"minority_slash"`
		NoVoteSlash          int64  `yaml:"no_vote_slash"`
	} `yaml:"protocol"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                "M49-Dispute-Tribunal-Service",
		HTTPPort:                 8080,
		GRPCPort:                 9090,
		DLQTopic:                 "dispute-tribunal.dlq",
		KafkaGroupID:             "dispute-tribunal",
		EscrowAccountID:          "escrow:dispute-tribunal",
		AuthorityID:              "tribunal-authority",
		TreasuryID:               "platform-treasury",
		ChallengerStake:          2000,
		RespondentStake:          2000,
		FeeRateBps:               500,
		MinJurorReputation:       100,
		MaxActiveAssignments:     3,
		JurySize:                 5,
		MajorityReward:           10,
		MinoritySlash:            10,
		NoVoteSlash:              20,
		IdempotencyTTL:           7 * 24 * time.Hour,
		EventDedupTTL:            7 * 24 * time.Hour,
		ConsumerPollInterval:     2 * time.Second,
		OutboxFlushBatchSize:     100,
		SettlementRetryBatchSize: 50,
	}
	if raw, err := os.ReadFile(path); err == nil {
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		cfg.RedisURL = f.Dependencies.RedisURL
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		if f.Dependencies.KafkaGroupID != "" {
			cfg.KafkaGroupID = f.Dependencies.KafkaGroupID
		}
		if f.Dependencies.DLQTopic != "" {
			cfg.DLQTopic = f.Dependencies.DLQTopic
		}
		cfg.LedgerGRPCURL = f.Dependencies.LedgerGRPCURL
		cfg.RegistryGRPCURL = f.Dependencies.RegistryGRPCURL
		if f.Escrow.AccountID != "" {
			cfg.EscrowAccountID = f.Escrow.AccountID
		}
		cfg.JWTSecret = f.Auth.JWTSecret
		if f.Protocol.AuthorityID != "" {
			cfg.AuthorityID = f.Protocol.AuthorityID
		}
		if f.Protocol.TreasuryID != "" {
			cfg.TreasuryID = f.Protocol.TreasuryID
		}
		if f.Protocol.ChallengerStake > 0 {
			cfg.ChallengerStake = f.Protocol.ChallengerStake
		}
		if f.Protocol.RespondentStake > 0 {
			cfg.RespondentStake = f.Protocol.RespondentStake
		}
		if f.Protocol.FeeRateBps > 0 {
			cfg.FeeRateBps = f.Protocol.FeeRateBps
		}
		if f.Protocol.MinJurorReputation > 0 {
			cfg.MinJurorReputation = f.Protocol.MinJurorReputation
		}
		if f.Protocol.MaxActiveAssignments > 0 {
			cfg.MaxActiveAssignments = f.Protocol.MaxActiveAssignments
		}
		if f.Protocol.JurySize > 0 {
			cfg.JurySize = f.Protocol.JurySize
		}
		if f.Protocol.MajorityReward > 0 {
			cfg.MajorityReward = f.Protocol.MajorityReward
		}
		if f.Protocol.MinoritySlash > 0 {
			cfg.MinoritySlash = f.Protocol.MinoritySlash
		}
		if f.Protocol.NoVoteSlash > 0 {
			cfg.NoVoteSlash = f.Protocol.NoVoteSlash
		}
	}
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	cfg.KafkaGroupID = envOrDefault("KAFKA_GROUP_ID", cfg.KafkaGroupID)
	cfg.DLQTopic = envOrDefault("DLQ_TOPIC", cfg.DLQTopic)
	cfg.LedgerGRPCURL = envOrDefault("LEDGER_GRPC_URL", cfg.LedgerGRPCURL)
	cfg.RegistryGRPCURL = envOrDefault("REGISTRY_GRPC_URL", cfg.RegistryGRPCURL)
	cfg.EscrowAccountID = envOrDefault("ESCROW_ACCOUNT_ID", cfg.EscrowAccountID)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.AuthorityID = envOrDefault("AUTHORITY_ID", cfg.AuthorityID)
	cfg.TreasuryID = envOrDefault("TREASURY_ID", cfg.TreasuryID)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.OutboxFlushBatchSize = envInt("OUTBOX_FLUSH_BATCH_SIZE", cfg.OutboxFlushBatchSize)
	cfg.SettlementRetryBatchSize = envInt("SETTLEMENT_RETRY_BATCH_SIZE", cfg.SettlementRetryBatchSize)
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
