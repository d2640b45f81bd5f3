package order

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the stored version moved since the order was read.
	ErrConflict = errors.New("order was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	// GetByID returns the order with all of its lines loaded.
	GetByID(ctx context.Context, id string) (*Order, error)
	// Update stores o.Status if the stored version still equals o.Version,
	// then bumps o.Version. Lines are never rewritten.
	Update(ctx context.Context, o *Order) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, account_id, status, total, version, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$6)
  `, o.ID, o.AccountID, string(o.Status), o.Total.StringFixed(2), o.Version, o.CreatedAt); err != nil {
		return err
	}

	for i, l := range o.Lines {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_lines (id, order_id, position, item_id, sku, name, picture_url, unit_price, quantity, line_total)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    `, l.ID, o.ID, i, l.ItemID, l.SKU, l.Name, l.PictureURL,
			l.UnitPrice.String(), l.Quantity, l.LineTotal.String()); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	var (
		o      Order
		status string
		total  string
	)
	if err := r.db.QueryRow(ctx, `
    SELECT id, account_id, status, total::text, version, created_at, updated_at
    FROM orders WHERE id=$1
  `, id).Scan(&o.ID, &o.AccountID, &status, &total, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Status = Status(status)
	var err error
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
    SELECT id, item_id, sku, name, picture_url, unit_price::text, quantity, line_total::text
    FROM order_lines WHERE order_id=$1 ORDER BY position
  `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l                Line
			price, lineTotal string
		)
		if err := rows.Scan(&l.ID, &l.ItemID, &l.SKU, &l.Name, &l.PictureURL, &price, &l.Quantity, &lineTotal); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if l.LineTotal, err = decimal.NewFromString(lineTotal); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
    UPDATE orders
    SET status = $3, version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
    RETURNING version, updated_at
  `, o.ID, o.Version, string(o.Status)).Scan(&o.Version, &o.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}
	return ErrNotFound
}

// MemoryRepo stores orders in process with the same version semantics as PGRepo.
type MemoryRepo struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: make(map[string]*Order)}
}

func (r *MemoryRepo) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.Clone(), nil
}

func (r *MemoryRepo) Update(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != o.Version {
		return ErrConflict
	}
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	next := cur.Clone()
	next.Status = o.Status
	next.Version = o.Version
	next.UpdatedAt = o.UpdatedAt
	r.orders[o.ID] = next
	return nil
}
