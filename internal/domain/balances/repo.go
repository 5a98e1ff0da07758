package balances

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/materials-mis/internal/infra/db"
)

// ErrNotFound means no balance row exists for the material. Every registered
// material gets one at registration, so hitting this from a movement is an
// internal-consistency fault, not user error.
var ErrNotFound = errors.New("balance not found")

// ErrLockTimeout means the balance row lock could not be taken within
// lock_timeout. Safe to retry.
var ErrLockTimeout = errors.New("balance row is locked, try again")

type InsufficientStockError struct {
	MaterialID int64
	Current    int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for material %d: current %d, requested %d",
		e.MaterialID, e.Current, e.Requested)
}

const lockTimeout = "3s"

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const balanceCols = "id, material_id, current_quantity, min_stock_level, max_stock_level, last_updated_at"

func scanBalance(row pgx.Row) (*Balance, error) {
	var b Balance
	err := row.Scan(&b.ID, &b.MaterialID, &b.CurrentQuantity, &b.MinStockLevel, &b.MaxStockLevel, &b.LastUpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Adjust applies delta to the material's balance in its own transaction.
func (r *Repo) Adjust(ctx context.Context, materialID, delta int64, allowNegative bool) (*Balance, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b, err := r.AdjustInTx(ctx, tx, materialID, delta, allowNegative)
	if err != nil {
		return nil, err
	}
	return b, tx.Commit(ctx)
}

// AdjustInTx is the check-then-apply step shared with the movement ledger.
// It takes an exclusive lock on the material's balance row, rejects a decrease
// past zero unless allowNegative, then applies the delta. The caller owns the
// transaction; on error nothing is applied and the caller must roll back.
func (r *Repo) AdjustInTx(ctx context.Context, tx pgx.Tx, materialID, delta int64, allowNegative bool) (*Balance, error) {
	if _, err := tx.Exec(ctx, "SET LOCAL lock_timeout = '"+lockTimeout+"'"); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		SELECT `+balanceCols+`
		FROM inventory_balances
		WHERE material_id = $1
		FOR UPDATE
	`, materialID)
	b, err := scanBalance(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if db.LockTimeout(err) {
			return nil, ErrLockTimeout
		}
		return nil, err
	}

	if !allowNegative && b.CurrentQuantity+delta < 0 {
		return nil, &InsufficientStockError{
			MaterialID: materialID,
			Current:    b.CurrentQuantity,
			Requested:  -delta,
		}
	}

	row = tx.QueryRow(ctx, `
		UPDATE inventory_balances
		SET current_quantity = current_quantity + $2, last_updated_at = now()
		WHERE material_id = $1
		RETURNING `+balanceCols+`
	`, materialID, delta)
	return scanBalance(row)
}

// DetailsParams carries the administrative override. Only non-nil fields are
// applied. CurrentQuantity bypasses the stock check by design; the ledger does
// not learn about the change.
type DetailsParams struct {
	CurrentQuantity *int64
	MinStockLevel   *int64
	MaxStockLevel   *int64
}

func (p DetailsParams) setClause() (string, []any) {
	var sets []string
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
	}
	if p.CurrentQuantity != nil {
		add("current_quantity", *p.CurrentQuantity)
	}
	if p.MinStockLevel != nil {
		add("min_stock_level", *p.MinStockLevel)
	}
	if p.MaxStockLevel != nil {
		add("max_stock_level", *p.MaxStockLevel)
	}
	return strings.Join(sets, ", "), args
}

// SetDetails updates the provided fields. Returns nil, nil if no balance row
// exists for the material.
func (r *Repo) SetDetails(ctx context.Context, materialID int64, p DetailsParams) (*Balance, error) {
	set, args := p.setClause()
	if set == "" {
		return r.Get(ctx, materialID)
	}
	args = append([]any{materialID}, args...)

	row := r.pool.QueryRow(ctx, `
		UPDATE inventory_balances
		SET `+set+`, last_updated_at = now()
		WHERE material_id = $1
		RETURNING `+balanceCols+`
	`, args...)
	b, err := scanBalance(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// Get returns the balance for a material, or nil, nil if absent.
func (r *Repo) Get(ctx context.Context, materialID int64) (*Balance, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+balanceCols+`
		FROM inventory_balances
		WHERE material_id = $1
	`, materialID)
	b, err := scanBalance(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (r *Repo) List(ctx context.Context, limit, offset int) ([]Balance, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_balances`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+balanceCols+`
		FROM inventory_balances
		ORDER BY material_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ID, &b.MaterialID, &b.CurrentQuantity, &b.MinStockLevel, &b.MaxStockLevel, &b.LastUpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}
