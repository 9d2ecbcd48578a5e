// Package postgres implements the dbexec contracts over a PostgreSQL
// connection through database/sql with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.PathEscape(c.Database),
		sslMode,
	)
}

// Adapter runs user statements against one target database. It renders
// results into the textual payload format the result normalizer decodes.
type Adapter struct {
	db *sql.DB
}

func Open(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("target host is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("target database is required")
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open target db: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping target db: %w", err)
	}

	return &Adapter{db: db}, nil
}

// NewAdapter wraps an already-open handle. Used by tests.
func NewAdapter(db *sql.DB) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping target db: %w", err)
	}
	return nil
}

// Run executes the statement. Row-returning statements come back as a
// bracket literal of tuples; everything else as an affected-row message.
func (a *Adapter) Run(ctx context.Context, sqlText string) (string, error) {
	if returnsRows(sqlText) {
		rows, err := a.db.QueryContext(ctx, sqlText)
		if err != nil {
			return "", fmt.Errorf("execute query: %w", err)
		}
		defer func() { _ = rows.Close() }()
		return renderRows(rows)
	}

	result, err := a.db.ExecContext(ctx, sqlText)
	if err != nil {
		return "", fmt.Errorf("execute statement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}
	if affected == 1 {
		return "1 row affected", nil
	}
	return fmt.Sprintf("%d rows affected", affected), nil
}

// QueryColumns executes the statement just to read its result descriptor.
func (a *Adapter) QueryColumns(ctx context.Context, sqlText string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query result metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}
	return columns, nil
}

// ColumnsOf returns the table's column names in ordinal order.
func (a *Adapter) ColumnsOf(ctx context.Context, tableName string) ([]string, error) {
	query := `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = 'public' AND lower(table_name) = lower($1)
ORDER BY ordinal_position`

	rows, err := a.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("inspect table %q: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column names: %w", err)
	}
	return columns, nil
}

// DescribeSchema renders the public schema as text for the generation prompt.
func (a *Adapter) DescribeSchema(ctx context.Context) (string, error) {
	query := `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("describe schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builder strings.Builder
	currentTable := ""
	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return "", fmt.Errorf("scan schema row: %w", err)
		}
		if tableName != currentTable {
			if currentTable != "" {
				builder.WriteString("\n")
			}
			builder.WriteString("Table " + tableName + ":\n")
			currentTable = tableName
		}
		builder.WriteString("  " + columnName + " " + dataType + "\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate schema rows: %w", err)
	}
	if builder.Len() == 0 {
		return "", fmt.Errorf("schema has no tables")
	}
	return builder.String(), nil
}

func returnsRows(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	for _, prefix := range []string{"select", "with", "show", "values", "table"} {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

func renderRows(rows *sql.Rows) (string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read result columns: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("[")
	count := 0
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return "", fmt.Errorf("scan row: %w", err)
		}
		if count > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(renderTuple(values))
		count++
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate rows: %w", err)
	}
	builder.WriteString("]")
	return builder.String(), nil
}

func renderTuple(values []any) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, renderScalar(value))
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return "b" + quoteText(string(v))
	case string:
		return quoteText(v)
	case time.Time:
		return quoteText(v.UTC().Format("2006-01-02 15:04:05"))
	default:
		return quoteText(fmt.Sprintf("%v", v))
	}
}

func quoteText(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", `\'`)
	return "'" + escaped + "'"
}
