package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers "sqlite"

	"github.com/leapstack-labs/dqstudio/internal/rules"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// timeLayout keeps created_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type ruleRow struct {
	ID         string `db:"id"`
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
	RuleText   string `db:"rule_text"`
	SQL        string `db:"sql_query"`
	Severity   string `db:"severity"`
	PassRate   int    `db:"pass_rate"`
	CreatedAt  string `db:"created_at"`
}

func (r ruleRow) rule() (Rule, error) {
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid created_at for rule %s: %w", r.ID, err)
	}
	return Rule{
		ID:         r.ID,
		TableName:  r.TableName,
		ColumnName: r.ColumnName,
		RuleText:   r.RuleText,
		SQL:        r.SQL,
		Severity:   rules.Severity(r.Severity),
		PassRate:   r.PassRate,
		CreatedAt:  created.UTC(),
	}, nil
}

// SQLStore implements Store on sqlite or postgres.
type SQLStore struct {
	db      *sqlx.DB
	dialect string
	now     func() time.Time
}

// Open connects to the catalog database. For sqlite, dsn is a file path or
// ":memory:"; for postgres it is a connection string.
func Open(driver, dsn string) (*SQLStore, error) {
	var (
		sqlDriver string
		dialect   string
	)
	switch strings.ToLower(driver) {
	case DriverSQLite, "":
		sqlDriver, dialect = "sqlite", "sqlite3"
		if dsn == "" {
			dsn = ":memory:"
		}
	case DriverPostgres, "pgx":
		sqlDriver, dialect = "pgx", "postgres"
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q (want sqlite or postgres)", driver)
	}

	db, err := sqlx.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if sqlDriver == "sqlite" {
		// one connection keeps ":memory:" a single database and serializes writers
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect, now: time.Now}, nil
}

// NewSQLStore wraps an existing connection. dialect is a goose dialect name.
func NewSQLStore(db *sqlx.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// Migrate runs all pending migrations.
func (s *SQLStore) Migrate() error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(s.dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Add implements Store.
func (s *SQLStore) Add(ctx context.Context, rule Rule) (*Rule, error) {
	rule.ID = uuid.NewString()
	rule.CreatedAt = s.now().UTC()
	if rule.Severity == "" {
		rule.Severity = rules.SeverityInfo
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO rules (id, table_name, column_name, rule_text, sql_query, severity, pass_rate, created_at)
		 VALUES (:id, :table_name, :column_name, :rule_text, :sql_query, :severity, :pass_rate, :created_at)`,
		ruleRow{
			ID:         rule.ID,
			TableName:  rule.TableName,
			ColumnName: rule.ColumnName,
			RuleText:   rule.RuleText,
			SQL:        rule.SQL,
			Severity:   string(rule.Severity),
			PassRate:   rule.PassRate,
			CreatedAt:  rule.CreatedAt.Format(timeLayout),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to insert rule: %w", err)
	}
	return &rule, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (*Rule, error) {
	var row ruleRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM rules WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	r, err := row.rule()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context, tableName string) ([]Rule, error) {
	query := `SELECT * FROM rules ORDER BY created_at, id`
	var args []any
	if tableName != "" {
		query = s.db.Rebind(`SELECT * FROM rules WHERE table_name = ? ORDER BY created_at, id`)
		args = append(args, tableName)
	}

	var rows []ruleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	out := make([]Rule, 0, len(rows))
	for _, row := range rows {
		r, err := row.rule()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM rules WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
