package dbtest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib" // golang postgres driver
	"github.com/jmoiron/sqlx"
)

// EnvDSN: переменная окружения с DSN тестовой базы. Без неё тесты,
// требующие Postgres, пропускаются.
const EnvDSN = "TEST_POSTGRES_DSN"

// Open подключается к тестовой базе и закрывает соединение по завершении теста.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDSN)
	}

	db, err := sqlx.ConnectContext(context.Background(), "pgx", dsn)
	if err != nil {
		t.Fatalf("sqlx.ConnectContext: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// Truncate очищает таблицы и сбрасывает последовательности.
func Truncate(t testing.TB, db *sqlx.DB, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		return
	}

	query := fmt.Sprintf("TRUNCATE %s RESTART IDENTITY", strings.Join(tables, ", "))
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
