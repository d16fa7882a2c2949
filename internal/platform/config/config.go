package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	id "carefund/pkg/domain"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresURL   string
	Redis         RedisConfig
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string

	// Distinguished principals.
	Admin    id.Principal
	Operator id.Principal

	Oracle OracleConfig

	Governance Governance
}

// OracleConfig pins the price feed served when no external feed is wired.
type OracleConfig struct {
	Price    *big.Int
	Decimals uint8
}

// RedisConfig tunes the optional Redis connection used for oracle caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PriceTTL     time.Duration
}

// Governance holds every tunable of the voting and fee machinery. Defaults
// match the production deployment; tests construct their own values.
type Governance struct {
	VotingPeriod          time.Duration
	GenesisTimeout        time.Duration
	GenesisApplicationTTL time.Duration
	RevocationCooldown    time.Duration
	FeeProposalWindow     time.Duration
	FeeProposalCooldown   time.Duration

	// Quorum thresholds, whole percents.
	ParticipationPct    uint64
	ApprovalPct         uint64
	FeeParticipationPct uint64
	FeeApprovalPct      uint64

	FeeBps    uint64
	FeeBpsMin uint64
	FeeBpsMax uint64

	// Fee split, whole percents of the collected fee.
	HealthPoolPct uint64
	DaoPoolPct    uint64

	// MinDonationUSD is an 18-decimal fixed-point USD amount. It is both the
	// donation floor and the strict lower bound for campaign targets.
	MinDonationUSD *big.Int

	GenesisCommitteeCap      int
	GenesisGraduationTarget  uint64
	MaxHealthVerifiers       int
	MaxDaoVerifiers          int
	AutoDaoCampaignThreshold int
}

// DefaultGovernance returns the production defaults.
func DefaultGovernance() Governance {
	return Governance{
		VotingPeriod:          7 * 24 * time.Hour,
		GenesisTimeout:        90 * 24 * time.Hour,
		GenesisApplicationTTL: 30 * 24 * time.Hour,
		RevocationCooldown:    30 * 24 * time.Hour,
		FeeProposalWindow:     14 * 24 * time.Hour,
		FeeProposalCooldown:   90 * 24 * time.Hour,

		ParticipationPct:    30,
		ApprovalPct:         60,
		FeeParticipationPct: 50,
		FeeApprovalPct:      70,

		FeeBps:    200,
		FeeBpsMin: 100,
		FeeBpsMax: 300,

		HealthPoolPct: 30,
		DaoPoolPct:    40,

		MinDonationUSD: new(big.Int).Mul(big.NewInt(10), Decimals18),

		GenesisCommitteeCap:      5,
		GenesisGraduationTarget:  5,
		MaxHealthVerifiers:       50,
		MaxDaoVerifiers:          50,
		AutoDaoCampaignThreshold: 5,
	}
}

// Decimals18 is the scaling factor for 18-decimal fixed-point amounts.
var Decimals18 = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := getenv("CAREFUND_ADDR", ":8080")

	jwtSigningKey := os.Getenv("CAREFUND_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("CAREFUND_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Server{
		Addr:          addr,
		PostgresURL:   os.Getenv("CAREFUND_POSTGRES_URL"),
		JWTSigningKey: jwtSigningKey,
		KafkaBrokers:  brokers,
		KafkaTopic:    getenv("CAREFUND_KAFKA_AUDIT_TOPIC", "carefund.audit"),
		Admin:         id.Principal(getenv("CAREFUND_ADMIN_PRINCIPAL", "admin")),
		Operator:      id.Principal(getenv("CAREFUND_OPERATOR_PRINCIPAL", "operator")),
		Oracle: OracleConfig{
			Price:    getbig("CAREFUND_ORACLE_PRICE", big.NewInt(1)),
			Decimals: uint8(getint("CAREFUND_ORACLE_DECIMALS", 0)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CAREFUND_REDIS_URL"),
			PoolSize:     getint("CAREFUND_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("CAREFUND_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PriceTTL:     getduration("CAREFUND_ORACLE_PRICE_TTL", time.Minute),
		},
		Governance: DefaultGovernance(),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getbig(key string, fallback *big.Int) *big.Int {
	if v := os.Getenv(key); v != "" {
		if n, ok := new(big.Int).SetString(v, 10); ok {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
