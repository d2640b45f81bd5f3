package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("payment not found")

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	// Update stores status, provider reference and updated_at.
	Update(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
}

// SQLRepo keeps payments in their own database, either Postgres (lib/pq) or
// SQLite (modernc). Amounts and timestamps are stored as text so both
// engines round-trip them exactly.
type SQLRepo struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens the payment database. driver is "postgres" or "sqlite".
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepo, error) {
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported payment db driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	r := &SQLRepo{db: db, driver: driver}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRepo) Close() error { return r.db.Close() }

func (r *SQLRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			id               TEXT PRIMARY KEY,
			order_id         TEXT NOT NULL,
			amount           TEXT NOT NULL,
			status           TEXT NOT NULL,
			provider_txn_ref TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS payments_order_id_idx ON payments (order_id)`)
	return err
}

func (r *SQLRepo) Create(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, r.bind(`
		INSERT INTO payments (id, order_id, amount, status, provider_txn_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.OrderID, p.Amount.String(), string(p.Status), p.ProviderTxnRef,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func (r *SQLRepo) Update(ctx context.Context, p *Payment) error {
	res, err := r.db.ExecContext(ctx, r.bind(`
		UPDATE payments SET status = ?, provider_txn_ref = ?, updated_at = ? WHERE id = ?`),
		string(p.Status), p.ProviderTxnRef, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepo) GetByID(ctx context.Context, id string) (*Payment, error) {
	var (
		p                    Payment
		amount, status       string
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, r.bind(`
		SELECT id, order_id, amount, status, provider_txn_ref, created_at, updated_at
		FROM payments WHERE id = ?`), id).
		Scan(&p.ID, &p.OrderID, &amount, &status, &p.ProviderTxnRef, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// bind rewrites ? placeholders to $n for lib/pq.
func (r *SQLRepo) bind(q string) string {
	if r.driver != "postgres" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
