package config

type Redis struct {
	Address        string `env:"REDIS_ADDRESS"`
	Username       string `env:"REDIS_USERNAME"`
	Password       string `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize       int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns   int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConns   int    `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`

	// EventsChannel: канал pub/sub для рассылки событий между инстансами.
	EventsChannel string `env:"REDIS_EVENTS_CHANNEL" envDefault:"nft_auction:events"`
}

func (r Redis) Enabled() bool {
	return r.Address != ""
}

type Asynq struct {
	Enabled     bool   `env:"ASYNQ_ENABLED" envDefault:"false"`
	Queue       string `env:"ASYNQ_QUEUE" envDefault:"settlement"`
	Priority    int    `env:"ASYNQ_QUEUE_PRIORITY" envDefault:"1"`
	Concurrency int    `env:"ASYNQ_CONCURRENCY" envDefault:"4"`
}
