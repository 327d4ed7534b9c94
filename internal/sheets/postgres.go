package sheets

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver + pq.Array
)

const createSheetRowsSQL = `
    CREATE TABLE IF NOT EXISTS sheet_rows (
        sheet TEXT NOT NULL,
        row_no INTEGER NOT NULL,
        cells TEXT[] NOT NULL,
        updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
        PRIMARY KEY (sheet, row_no)
    );`

// OpenPostgres открывает пул соединений и создаёт таблицу строк листов.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSheetRowsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка создания таблицы sheet_rows: %w", err)
	}
	return db, nil
}

// Postgres хранит лист построчно: одна запись sheet_rows на строку, ячейки - TEXT[].
type Postgres struct {
	db    *sql.DB
	sheet string
}

func NewPostgres(db *sql.DB, sheet string) *Postgres {
	return &Postgres{db: db, sheet: sheet}
}

func (p *Postgres) Name() string { return p.sheet }

func (p *Postgres) Header(ctx context.Context) ([]string, error) {
	var cells []string
	err := p.db.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = $1 AND row_no = 1`, p.sheet,
	).Scan(pq.Array(&cells))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cells, err
}

func (p *Postgres) Rows(ctx context.Context) ([][]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = $1 AND row_no > 1 ORDER BY row_no`, p.sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var cells []string
		if err := rows.Scan(pq.Array(&cells)); err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (p *Postgres) Append(ctx context.Context, cells []string) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Номер строки выдаётся под advisory-блокировкой листа.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.sheet); err != nil {
		return 0, err
	}
	var row int
	err = tx.QueryRowContext(ctx, `
        INSERT INTO sheet_rows (sheet, row_no, cells)
        SELECT $1, COALESCE(MAX(row_no), 0) + 1, $2 FROM sheet_rows WHERE sheet = $1
        RETURNING row_no`, p.sheet, pq.Array(cells),
	).Scan(&row)
	if err != nil {
		return 0, err
	}
	return row, tx.Commit()
}

func (p *Postgres) UpdateCells(ctx context.Context, row int, cells map[int]string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current []string
	err = tx.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = $1 AND row_no = $2 FOR UPDATE`, p.sheet, row,
	).Scan(pq.Array(&current))
	if err == sql.ErrNoRows {
		return fmt.Errorf("лист %q: строки %d нет", p.sheet, row)
	}
	if err != nil {
		return err
	}
	for col, value := range cells {
		if col < 1 {
			return fmt.Errorf("лист %q: неверная колонка %d", p.sheet, col)
		}
		for len(current) < col {
			current = append(current, "")
		}
		current[col-1] = value
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sheet_rows SET cells = $3, updated_at = NOW() WHERE sheet = $1 AND row_no = $2`,
		p.sheet, row, pq.Array(current)); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) FindRow(ctx context.Context, col int, value string) (int, bool, error) {
	var row int
	err := p.db.QueryRowContext(ctx, `
        SELECT row_no FROM sheet_rows
        WHERE sheet = $1 AND row_no > 1 AND cells[$2::int] = $3
        ORDER BY row_no LIMIT 1`, p.sheet, col, value,
	).Scan(&row)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row, true, nil
}
