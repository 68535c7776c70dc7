package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/jmoiron/sqlx"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/errcodes"
)

const auctionColumns = `
	id, seller, oracle_reader, asset_contract, asset_id::text AS asset_id,
	start_price_usd::text AS start_price_usd, deadline, highest_bidder,
	highest_bid_amount::text AS highest_bid_amount, payment_asset, ended, created_at`

// PostgresStore хранит состояние реестра в Postgres.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx выполняет fn в транзакции; ошибка fn откатывает все записи.
// Транзакция начинается с блокировки строки registry_meta, поэтому
// транзакции разных процессов над одной базой идут по очереди. READ
// COMMITTED: после ожидания блокировки чтения видят зафиксированное
// предшественником.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx auction.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := lockMeta(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// lockMeta: до инициализации строки нет, блокировать нечего.
func lockMeta(ctx context.Context, tx *sqlx.Tx) error {
	var id int
	err := tx.GetContext(ctx, &id, `SELECT id FROM registry_meta WHERE id = 1 FOR UPDATE`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to lock registry meta")
	}
	return nil
}

func (s *PostgresStore) Meta(ctx context.Context) (auction.Meta, bool, error) {
	return (&pgTx{q: s.db}).Meta(ctx)
}

func (s *PostgresStore) GetAuction(ctx context.Context, id uint64) (*entity.Auction, error) {
	return (&pgTx{q: s.db}).GetAuction(ctx, id)
}

func (s *PostgresStore) ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error) {
	return (&pgTx{q: s.db}).ListAuctions(ctx, offset, limit)
}

func (s *PostgresStore) FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error) {
	return (&pgTx{q: s.db}).FeeBalance(ctx, currency)
}

func (s *PostgresStore) ListEvents(ctx context.Context, auctionID uint64) ([]entity.Event, error) {
	return (&pgTx{q: s.db}).ListEvents(ctx, auctionID)
}

// pgTx работает и поверх *sqlx.DB для чтений, и поверх *sqlx.Tx.
type pgTx struct {
	q sqlx.ExtContext
}

func (t *pgTx) Meta(ctx context.Context) (auction.Meta, bool, error) {
	var schema metaSchema
	err := sqlx.GetContext(ctx, t.q, &schema,
		`SELECT admin, next_auction_id, fee_policy FROM registry_meta WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auction.Meta{}, false, nil
		}
		return auction.Meta{}, false, domain.WrapError(err, errcodes.InternalServerError, "failed to get registry meta")
	}
	return schema.toDomain(), true, nil
}

func (t *pgTx) SetMeta(ctx context.Context, meta auction.Meta) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO registry_meta (id, admin, next_auction_id, fee_policy)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			admin = EXCLUDED.admin,
			next_auction_id = EXCLUDED.next_auction_id,
			fee_policy = EXCLUDED.fee_policy`,
		meta.Admin.Hex(), int64(meta.NextAuctionID), meta.FeePolicy) //nolint:gosec
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to save registry meta")
	}
	return nil
}

func (t *pgTx) GetAuction(ctx context.Context, id uint64) (*entity.Auction, error) {
	var schema auctionSchema
	err := sqlx.GetContext(ctx, t.q, &schema,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, int64(id)) //nolint:gosec
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuctionDoesNotExist
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get auction")
	}

	a, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert auction")
	}
	return a, nil
}

func (t *pgTx) ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error) {
	var schemas []auctionSchema
	err := sqlx.SelectContext(ctx, t.q, &schemas,
		`SELECT `+auctionColumns+` FROM auctions ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list auctions")
	}

	out := make([]*entity.Auction, 0, len(schemas))
	for _, s := range schemas {
		a, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert auction")
		}
		out = append(out, a)
	}
	return out, nil
}

func (t *pgTx) InsertAuction(ctx context.Context, a *entity.Auction) error {
	query := `
		INSERT INTO auctions (
			id, seller, oracle_reader, asset_contract, asset_id, start_price_usd,
			deadline, highest_bidder, highest_bid_amount, payment_asset, ended, created_at
		) VALUES (
			:id, :seller, :oracle_reader, :asset_contract, CAST(:asset_id AS NUMERIC), CAST(:start_price_usd AS NUMERIC),
			:deadline, :highest_bidder, CAST(:highest_bid_amount AS NUMERIC), :payment_asset, :ended, :created_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, t.q, query, fromAuction(a)); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to create auction")
	}
	return nil
}

// UpdateAuction меняет только изменяемые поля записи.
func (t *pgTx) UpdateAuction(ctx context.Context, a *entity.Auction) error {
	query := `
		UPDATE auctions SET
			highest_bidder = :highest_bidder,
			highest_bid_amount = CAST(:highest_bid_amount AS NUMERIC),
			payment_asset = :payment_asset,
			ended = :ended
		WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, t.q, query, fromAuction(a))
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update auction")
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrAuctionDoesNotExist
	}
	return nil
}

func (t *pgTx) FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error) {
	var balance string
	err := sqlx.GetContext(ctx, t.q, &balance,
		`SELECT balance::text FROM fee_ledger WHERE currency = $1`, currency.Hex())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return new(big.Int), nil
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get fee balance")
	}

	v, err := value.ParseInt(balance)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to parse fee balance")
	}
	return v, nil
}

func (t *pgTx) SetFeeBalance(ctx context.Context, currency value.Currency, amount *big.Int) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO fee_ledger (currency, balance) VALUES ($1, $2::numeric)
		ON CONFLICT (currency) DO UPDATE SET balance = EXCLUDED.balance`,
		currency.Hex(), value.Clone(amount).String())
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to save fee balance")
	}
	return nil
}

func (t *pgTx) AppendEvents(ctx context.Context, events ...entity.Event) error {
	query := `
		INSERT INTO events (
			id, type, auction_id, actor, currency, amount, recipient, old_value, new_value, occurred_at
		) VALUES (
			:id, :type, :auction_id, :actor, :currency, CAST(:amount AS NUMERIC), :recipient, :old_value, :new_value, :occurred_at
		)`

	for i, e := range events {
		if _, err := sqlx.NamedExecContext(ctx, t.q, query, fromEvent(e)); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, fmt.Sprintf("failed to append event %d", i))
		}
	}
	return nil
}

func (t *pgTx) ListEvents(ctx context.Context, auctionID uint64) ([]entity.Event, error) {
	var schemas []eventSchema
	err := sqlx.SelectContext(ctx, t.q, &schemas, `
		SELECT id::text AS id, type, auction_id, actor, currency, amount::text AS amount,
		       recipient, old_value, new_value, occurred_at
		FROM events
		WHERE auction_id = $1
		ORDER BY seq`, int64(auctionID)) //nolint:gosec
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list events")
	}

	out := make([]entity.Event, 0, len(schemas))
	for _, s := range schemas {
		e, err := s.toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert event")
		}
		out = append(out, e)
	}
	return out, nil
}
