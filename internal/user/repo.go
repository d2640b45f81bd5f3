package user

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("account not found")
)

type Repository interface {
	// Upsert creates the account or replaces its password and roles.
	Upsert(ctx context.Context, a *Account) error
	GetByUsername(ctx context.Context, username string) (*Account, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Upsert(ctx context.Context, a *Account) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO service_accounts (id, username, password_hash, roles, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    roles = EXCLUDED.roles,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, a.ID, a.Username, a.PasswordHash, a.Roles).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *PGRepo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, roles, created_at, updated_at
		FROM service_accounts WHERE username=$1
	`, username)
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Roles, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// MemoryRepo keeps accounts in process; used when POSTGRES_DSN is empty and in tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	byUsr map[string]Account
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUsr: make(map[string]Account)}
}

func (r *MemoryRepo) Upsert(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if cur, ok := r.byUsr[a.Username]; ok {
		a.ID = cur.ID
		a.CreatedAt = cur.CreatedAt
	} else {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	cp := *a
	cp.Roles = append([]string(nil), a.Roles...)
	r.byUsr[a.Username] = cp
	return nil
}

func (r *MemoryRepo) GetByUsername(_ context.Context, username string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byUsr[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}
