// Package source reads the scraped tables (Parquet or CSV) into loosely typed
// records through an embedded DuckDB engine.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/pable/go-h2h/internal/model"
)

// Reader holds an in-memory DuckDB connection used only to scan files.
type Reader struct {
	conn *sql.DB
}

// Open starts an in-memory DuckDB instance.
func Open() (*Reader, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &Reader{conn: conn}, nil
}

// Close releases the engine.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// tableFunc returns the DuckDB table function expression that scans path.
func tableFunc(path string) (string, error) {
	lit := quoteLiteral(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "read_parquet(" + lit + ")", nil
	case ".csv", ".tsv", ".txt":
		return "read_csv(" + lit + ", header=true, all_varchar=true)", nil
	default:
		return "", fmt.Errorf("unsupported source format %q", filepath.Ext(path))
	}
}

// ReadRecords returns every row of the file in file order. Values are cast to
// text; SQL NULL leaves the column out of the record.
func (r *Reader) ReadRecords(ctx context.Context, path string) ([]model.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source %s: %w", path, err)
	}
	from, err := tableFunc(path)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", path, err)
	}

	cols, err := r.columns(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", path, err)
	}
	if len(cols) == 0 {
		return nil, nil
	}

	sel := make([]string, len(cols))
	for i, c := range cols {
		q := quoteIdent(c)
		sel[i] = "CAST(" + q + " AS VARCHAR) AS " + q
	}
	rows, err := r.conn.QueryContext(ctx, "SELECT "+strings.Join(sel, ", ")+" FROM "+from)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	defer rows.Close()

	var out []model.Record
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		rec := make(model.Record, len(cols))
		for i, v := range vals {
			if v.Valid {
				rec[cols[i]] = v.String
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

func (r *Reader) columns(ctx context.Context, from string) ([]string, error) {
	rows, err := r.conn.QueryContext(ctx, "DESCRIBE SELECT * FROM "+from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		vals := make([]sql.NullString, len(fields))
		ptrs := make([]any, len(fields))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// column_name is the first DESCRIBE column.
		names = append(names, vals[0].String)
	}
	return names, rows.Err()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
