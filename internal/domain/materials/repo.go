package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/materials-mis/internal/domain/balances"
	"github.com/Spok95/materials-mis/internal/infra/db"
)

var ErrNotFound = errors.New("material not found")

type DuplicateCodeError struct{ Code string }

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("material code %q is already in use", e.Code)
}

// NonZeroStockError blocks deregistration while stock remains.
type NonZeroStockError struct {
	MaterialID int64
	Quantity   int64
}

func (e *NonZeroStockError) Error() string {
	return fmt.Sprintf("material %d still has stock (%d), cannot delete", e.MaterialID, e.Quantity)
}

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const materialCols = "id, code, name, model, unit, supplier, remarks, is_active, created_at, updated_at"

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Model, &m.Unit, &m.Supplier, &m.Remarks, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type CreateParams struct {
	Code     string
	Name     string
	Model    string
	Unit     string
	Supplier string
	Remarks  string
	IsActive bool
}

// Create registers the material and seeds its zero balance in one transaction.
func (r *Repo) Create(ctx context.Context, p CreateParams) (*Material, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO materials (code, name, model, unit, supplier, remarks, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+materialCols+`
	`, p.Code, p.Name, p.Model, p.Unit, p.Supplier, p.Remarks, p.IsActive)
	m, err := scanMaterial(row)
	if err != nil {
		if db.UniqueViolation(err) {
			return nil, &DuplicateCodeError{Code: p.Code}
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_balances (material_id) VALUES ($1)
	`, m.ID); err != nil {
		return nil, err
	}

	return m, tx.Commit(ctx)
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Code     *string
	Name     *string
	Model    *string
	Unit     *string
	Supplier *string
	Remarks  *string
	IsActive *bool
}

func (p UpdateParams) setClause() (string, []any) {
	var sets []string
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
	}
	if p.Code != nil {
		add("code", *p.Code)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Model != nil {
		add("model", *p.Model)
	}
	if p.Unit != nil {
		add("unit", *p.Unit)
	}
	if p.Supplier != nil {
		add("supplier", *p.Supplier)
	}
	if p.Remarks != nil {
		add("remarks", *p.Remarks)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	return strings.Join(sets, ", "), args
}

func (r *Repo) Update(ctx context.Context, id int64, p UpdateParams) (*Material, error) {
	set, args := p.setClause()
	if set == "" {
		m, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, ErrNotFound
		}
		return m, nil
	}
	args = append([]any{id}, args...)

	row := r.pool.QueryRow(ctx, `
		UPDATE materials
		SET `+set+`, updated_at = now()
		WHERE id = $1
		RETURNING `+materialCols+`
	`, args...)
	m, err := scanMaterial(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if db.UniqueViolation(err) {
			code := ""
			if p.Code != nil {
				code = *p.Code
			}
			return nil, &DuplicateCodeError{Code: code}
		}
		return nil, err
	}
	return m, nil
}

// Delete removes the material and its balance in one transaction. The balance
// row is locked first so a racing movement cannot slip stock in under the
// zero-stock check.
func (r *Repo) Delete(ctx context.Context, id int64) (*Material, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+materialCols+` FROM materials WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var qty int64
	err = tx.QueryRow(ctx, `
		SELECT current_quantity FROM inventory_balances WHERE material_id = $1 FOR UPDATE
	`, id).Scan(&qty)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, balances.ErrNotFound
		}
		return nil, err
	}
	if qty != 0 {
		return nil, &NonZeroStockError{MaterialID: id, Quantity: qty}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM inventory_balances WHERE material_id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id); err != nil {
		return nil, err
	}

	return m, tx.Commit(ctx)
}

// GetByID returns nil, nil when the material does not exist.
func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+materialCols+` FROM materials WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *Repo) GetByCode(ctx context.Context, code string) (*Material, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+materialCols+` FROM materials WHERE code = $1`, code)
	m, err := scanMaterial(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

type ListFilter struct {
	Code     string
	Name     string
	IsActive *bool
}

func (f ListFilter) whereClause() (string, []any) {
	var conds []string
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	// Name and code together widen the match rather than narrow it, same as
	// the search box the listing backs.
	switch {
	case f.Name != "" && f.Code != "":
		args = append(args, "%"+f.Name+"%", "%"+f.Code+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", len(args)-1, len(args)))
	case f.Name != "":
		add("name ILIKE $%d", "%"+f.Name+"%")
	case f.Code != "":
		add("code ILIKE $%d", "%"+f.Code+"%")
	}
	if f.IsActive != nil {
		add("is_active = $%d", *f.IsActive)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repo) List(ctx context.Context, f ListFilter, limit, offset int) ([]Material, int64, error) {
	where, args := f.whereClause()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM materials`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT `+materialCols+`
		FROM materials
		%s
		ORDER BY id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Model, &m.Unit, &m.Supplier, &m.Remarks, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
