// Package product is the stock ledger: items by SKU and atomic stock adjustment.
package product

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("item not found")
	ErrDuplicateSKU  = errors.New("sku already exists")
	ErrNegativeStock = errors.New("stock cannot go below 0")
)

type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	GetBySKU(ctx context.Context, sku string) (*Item, error)
	// Adjust adds delta to the stock in one step. It fails with
	// ErrNegativeStock, leaving the row untouched, if the result is below zero.
	Adjust(ctx context.Context, id string, delta int) (*Item, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const itemColumns = `id, sku, name, description, picture_url, price::text, stock, active, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO items (id, sku, name, description, picture_url, price, stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING created_at, updated_at
	`, it.ID, it.SKU, it.Name, it.Description, it.PictureURL, it.Price.String(), it.Stock, it.Active).
		Scan(&it.CreatedAt, &it.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateSKU
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
}

func (r *PGRepo) GetBySKU(ctx context.Context, sku string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanItem(r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE sku=$1`, sku))
}

// Adjust relies on the row lock taken by UPDATE to serialize writers of the
// same item, and on the WHERE clause to keep stock non-negative.
func (r *PGRepo) Adjust(ctx context.Context, id string, delta int) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	it, err := scanItem(r.db.QueryRow(ctx, `
		UPDATE items
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING `+itemColumns, id, delta))
	if !errors.Is(err, ErrNotFound) {
		return it, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrNegativeStock
	}
	return nil, ErrNotFound
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		it    Item
		price string
	)
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.Description, &it.PictureURL,
		&price, &it.Stock, &it.Active, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if it.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &it, nil
}

// MemoryRepo is the in-process ledger used by tests and by product-service
// when POSTGRES_DSN is empty.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]*Item
	bySKU map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]*Item), bySKU: make(map[string]string)}
}

func (r *MemoryRepo) Create(_ context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySKU[it.SKU]; ok {
		return ErrDuplicateSKU
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.CreatedAt = time.Now().UTC()
	it.UpdatedAt = it.CreatedAt
	cp := *it
	r.byID[it.ID] = &cp
	r.bySKU[it.SKU] = it.ID
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *MemoryRepo) GetBySKU(ctx context.Context, sku string) (*Item, error) {
	r.mu.Lock()
	id, ok := r.bySKU[sku]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepo) Adjust(_ context.Context, id string, delta int) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if it.Stock+delta < 0 {
		return nil, ErrNegativeStock
	}
	it.Stock += delta
	it.UpdatedAt = time.Now().UTC()
	cp := *it
	return &cp, nil
}
