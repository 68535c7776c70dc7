package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	HTTP     HTTP
	Auth     Auth
	Store    Store
	Postgres Postgres
	Redis    Redis
	Asynq    Asynq
	Bot      Bot
	Chain    Chain
	Auction  Auction
	Fee      Fee
	Oracle   Oracle
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("PG_DSN is required for store driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Asynq.Enabled && !c.Redis.Enabled() {
		return fmt.Errorf("ASYNQ_ENABLED requires REDIS_ADDRESS")
	}

	if _, err := c.Auth.Principals(); err != nil {
		return err
	}

	if c.Fee.BasisPoints > 0 && len(c.Fee.FlatAmounts) > 0 {
		return fmt.Errorf("FEE_BPS and FEE_FLAT are mutually exclusive")
	}

	return nil
}
