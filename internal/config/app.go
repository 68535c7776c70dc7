package config

import (
	"fmt"
	"time"

	"nft_auction/internal/domain/value"
)

type App struct {
	Name     string `env:"APP_NAME" envDefault:"nft-auction"`
	Version  string `env:"APP_VERSION" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LogPretty включает цветной вывод tint вместо JSON.
	LogPretty bool `env:"LOG_PRETTY" envDefault:"false"`
}

type HTTP struct {
	ListenAddress        string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ProbeListenAddress   string        `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
	MetricsListenAddress string        `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
	ShutdownTimeout      time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout    time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	LogFieldMaxLen       int           `env:"HTTP_LOG_FIELD_MAX_LEN" envDefault:"4096"`

	// SensitiveFields маскируются в логах запросов и ответов.
	SensitiveFields []string `env:"HTTP_SENSITIVE_FIELDS" envSeparator:","`
}

type Auth struct {
	// Tokens: bearer-токены участников: token=0xAddress. Без токенов
	// изменяющие маршруты HTTP закрыты.
	Tokens map[string]string `env:"AUTH_TOKENS" envSeparator:"," envKeyValSeparator:"=" json:"-"`
}

// Principals разбирает AUTH_TOKENS в адреса участников.
func (a Auth) Principals() (map[string]value.Address, error) {
	out := make(map[string]value.Address, len(a.Tokens))

	for token, raw := range a.Tokens {
		if token == "" {
			return nil, fmt.Errorf("AUTH_TOKENS: empty token for %s", raw)
		}

		addr, err := value.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("AUTH_TOKENS: %w", err)
		}

		out[token] = addr
	}

	return out, nil
}
