package movements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/materials-mis/internal/domain/balances"
	"github.com/Spok95/materials-mis/internal/infra/db"
)

var ErrMaterialNotFound = errors.New("material not found")

var ErrNonPositiveQuantity = errors.New("quantity must be > 0")

type DuplicateOrderNumberError struct{ OrderNumber string }

func (e *DuplicateOrderNumberError) Error() string {
	return fmt.Sprintf("order number %q is already recorded", e.OrderNumber)
}

type Repo struct {
	pool     *pgxpool.Pool
	balances *balances.Repo
}

func NewRepo(pool *pgxpool.Pool, balancesRepo *balances.Repo) *Repo {
	return &Repo{pool: pool, balances: balancesRepo}
}

type InboundParams struct {
	MaterialID  int64
	Quantity    int64
	OrderNumber *string
	Remarks     string
}

type OutboundParams struct {
	MaterialID  int64
	Quantity    int64
	OrderNumber *string
	Recipient   string
	Remarks     string
}

const inboundCols = "id, order_number, material_id, quantity, occurred_at, remarks"
const outboundCols = "id, order_number, material_id, quantity, recipient, occurred_at, remarks"

// RecordInbound persists the movement and increases the balance as one
// transaction. Inbound never fails on stock grounds.
func (r *Repo) RecordInbound(ctx context.Context, p InboundParams) (*Inbound, error) {
	if p.Quantity <= 0 {
		return nil, ErrNonPositiveQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.checkMaterial(ctx, tx, p.MaterialID); err != nil {
		return nil, err
	}
	if _, err := r.balances.AdjustInTx(ctx, tx, p.MaterialID, p.Quantity, true); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO inbound_records (order_number, material_id, quantity, remarks)
		VALUES ($1,$2,$3,$4)
		RETURNING `+inboundCols+`
	`, p.OrderNumber, p.MaterialID, p.Quantity, p.Remarks)

	var in Inbound
	if err := row.Scan(&in.ID, &in.OrderNumber, &in.MaterialID, &in.Quantity, &in.OccurredAt, &in.Remarks); err != nil {
		if db.UniqueViolation(err) {
			return nil, &DuplicateOrderNumberError{OrderNumber: deref(p.OrderNumber)}
		}
		return nil, err
	}
	return &in, tx.Commit(ctx)
}

// RecordOutbound persists the movement and decreases the balance as one
// transaction. If stock is insufficient the whole unit is rolled back and no
// movement row survives.
func (r *Repo) RecordOutbound(ctx context.Context, p OutboundParams) (*Outbound, error) {
	if p.Quantity <= 0 {
		return nil, ErrNonPositiveQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.checkMaterial(ctx, tx, p.MaterialID); err != nil {
		return nil, err
	}
	if _, err := r.balances.AdjustInTx(ctx, tx, p.MaterialID, -p.Quantity, false); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO outbound_records (order_number, material_id, quantity, recipient, remarks)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+outboundCols+`
	`, p.OrderNumber, p.MaterialID, p.Quantity, p.Recipient, p.Remarks)

	var out Outbound
	if err := row.Scan(&out.ID, &out.OrderNumber, &out.MaterialID, &out.Quantity, &out.Recipient, &out.OccurredAt, &out.Remarks); err != nil {
		if db.UniqueViolation(err) {
			return nil, &DuplicateOrderNumberError{OrderNumber: deref(p.OrderNumber)}
		}
		return nil, err
	}
	return &out, tx.Commit(ctx)
}

func (r *Repo) checkMaterial(ctx context.Context, tx pgx.Tx, materialID int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM materials WHERE id = $1)`, materialID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrMaterialNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *Repo) GetInboundByID(ctx context.Context, id int64) (*Inbound, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+inboundCols+` FROM inbound_records WHERE id = $1`, id)
	var in Inbound
	if err := row.Scan(&in.ID, &in.OrderNumber, &in.MaterialID, &in.Quantity, &in.OccurredAt, &in.Remarks); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

func (r *Repo) GetOutboundByID(ctx context.Context, id int64) (*Outbound, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+outboundCols+` FROM outbound_records WHERE id = $1`, id)
	var out Outbound
	if err := row.Scan(&out.ID, &out.OrderNumber, &out.MaterialID, &out.Quantity, &out.Recipient, &out.OccurredAt, &out.Remarks); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

type ListFilter struct {
	MaterialID *int64
	Start      *time.Time
	End        *time.Time
}

func (f ListFilter) whereClause() (string, []any) {
	var conds []string
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.MaterialID != nil {
		add("material_id = $%d", *f.MaterialID)
	}
	if f.Start != nil {
		add("occurred_at >= $%d", *f.Start)
	}
	if f.End != nil {
		add("occurred_at <= $%d", *f.End)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repo) ListInbound(ctx context.Context, f ListFilter, limit, offset int) ([]Inbound, int64, error) {
	where, args := f.whereClause()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inbound_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT `+inboundCols+`
		FROM inbound_records
		%s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Inbound
	for rows.Next() {
		var in Inbound
		if err := rows.Scan(&in.ID, &in.OrderNumber, &in.MaterialID, &in.Quantity, &in.OccurredAt, &in.Remarks); err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	return out, total, rows.Err()
}

func (r *Repo) ListOutbound(ctx context.Context, f ListFilter, limit, offset int) ([]Outbound, int64, error) {
	where, args := f.whereClause()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbound_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT `+outboundCols+`
		FROM outbound_records
		%s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Outbound
	for rows.Next() {
		var o Outbound
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.MaterialID, &o.Quantity, &o.Recipient, &o.OccurredAt, &o.Remarks); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}
