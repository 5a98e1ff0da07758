package reports

import (
	"bytes"
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) DashboardSummary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM materials),
			COALESCE((SELECT SUM(current_quantity) FROM inventory_balances), 0),
			(SELECT COUNT(*) FROM inventory_balances
			 WHERE current_quantity < min_stock_level AND min_stock_level > 0)
	`).Scan(&s.MaterialCount, &s.TotalStockQuantity, &s.AlertCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ExportBalances renders all balances with their material info as an xlsx
// workbook for offline stock-taking.
func (r *Repo) ExportBalances(ctx context.Context) ([]byte, string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.code, m.name, m.unit,
		       b.current_quantity, b.min_stock_level, b.max_stock_level, b.last_updated_at
		FROM materials m
		JOIN inventory_balances b ON b.material_id = m.id
		ORDER BY m.code
	`)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{
		"material_id",
		"code",
		"name",
		"unit",
		"current_quantity",
		"min_stock_level",
		"max_stock_level",
		"last_updated_at",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}

	rowN := 2
	for rows.Next() {
		var (
			id, qty, minLvl, maxLvl int64
			code, name, unit        string
			updatedAt               time.Time
		)
		if err := rows.Scan(&id, &code, &name, &unit, &qty, &minLvl, &maxLvl, &updatedAt); err != nil {
			return nil, "", err
		}
		excelRow := []interface{}{id, code, name, unit, qty, minLvl, maxLvl, updatedAt.Format(time.RFC3339)}
		cell, err := excelize.CoordinatesToCellName(1, rowN)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, "", err
		}
		rowN++
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, "", err
	}

	name := "balances_" + time.Now().Format("20060102_150405") + ".xlsx"
	return buf.Bytes(), name, nil
}
