package config

import "time"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Store struct {
	Driver string `env:"STORE_DRIVER" envDefault:"memory"`
}

type Postgres struct {
	DSN             string        `env:"PG_DSN" json:"-"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"5m"`
}
