// Package config builds runtime configuration from the environment so main
// stays lean. Only the HTTP address has a default; everything optional
// degrades to the in-process implementation (memory stores, simulated
// rails) when unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	id "namedeed/pkg/domain"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// AdminAccount seeds the administrator slot on first boot. Later
	// transfers are state, not config.
	AdminAccount id.Account
	// RegistryAccount is the rail account that holds contract funds.
	RegistryAccount id.Account
	// InitialPrice seeds the registration price (stablecoin smallest
	// units) on first boot.
	InitialPrice uint64

	// DatabaseURL selects the Postgres stores when set.
	DatabaseURL string
	// RedisURL enables the owner-lookup cache when set.
	RedisURL string
	// KafkaBrokers enables the Kafka event publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
	// OracleURL selects the HTTP price feed; unset falls back to the
	// fixed dev-mode rate.
	OracleURL string
}

// FromEnv reads configuration from NAMEDEED_* environment variables.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:       getenv("NAMEDEED_ADDR", ":8080"),
		KafkaTopic: getenv("NAMEDEED_KAFKA_TOPIC", "namedeed.events"),

		JWTSigningKey: os.Getenv("NAMEDEED_JWT_SIGNING_KEY"),
		DatabaseURL:   os.Getenv("NAMEDEED_DATABASE_URL"),
		RedisURL:      os.Getenv("NAMEDEED_REDIS_URL"),
		OracleURL:     os.Getenv("NAMEDEED_ORACLE_URL"),
	}
	if cfg.JWTSigningKey == "" {
		// Dev default; override in any real deployment.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if brokers := os.Getenv("NAMEDEED_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	admin, err := id.ParseAccount(getenv("NAMEDEED_ADMIN_ACCOUNT",
		"0x00000000000000000000000000000000000000a1"))
	if err != nil {
		return Server{}, fmt.Errorf("NAMEDEED_ADMIN_ACCOUNT: %w", err)
	}
	cfg.AdminAccount = admin

	registry, err := id.ParseAccount(getenv("NAMEDEED_REGISTRY_ACCOUNT",
		"0x00000000000000000000000000000000000000c0"))
	if err != nil {
		return Server{}, fmt.Errorf("NAMEDEED_REGISTRY_ACCOUNT: %w", err)
	}
	cfg.RegistryAccount = registry

	price, err := strconv.ParseUint(getenv("NAMEDEED_INITIAL_PRICE", "100000000"), 10, 64)
	if err != nil || price == 0 {
		return Server{}, fmt.Errorf("NAMEDEED_INITIAL_PRICE must be a positive integer")
	}
	cfg.InitialPrice = price

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
