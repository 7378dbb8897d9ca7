package order

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lotbot/internal/config"
	"lotbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg StoreConfig, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if busy, err := config.ParseDurationField("storage.busy_timeout", cfg.BusyTimeout); err == nil && busy > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) SaveOrder(ctx context.Context, o Order) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders(created_at, user_id, username, full_name, name, reg_numbers, license_term, paid, receipt_name)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		o.CreatedAt.Format(time.RFC3339Nano), o.UserID, nullStr(o.Username), nullStr(o.FullName),
		o.Name, strings.Join(o.RegNumbers, ","), o.LicenseTerm, boolInt(o.Paid), nullStr(o.ReceiptName),
	)
	return err
}

func (s *sqliteStore) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, user_id, COALESCE(username,''), COALESCE(full_name,''),
		        name, reg_numbers, license_term, paid, COALESCE(receipt_name,'')
		 FROM orders ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var (
			o       Order
			created string
			regs    string
			paid    int
		)
		if err := rows.Scan(&o.ID, &created, &o.UserID, &o.Username, &o.FullName,
			&o.Name, &regs, &o.LicenseTerm, &paid, &o.ReceiptName); err != nil {
			return nil, err
		}
		o.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		if regs != "" {
			o.RegNumbers = strings.Split(regs, ",")
		}
		o.Paid = paid != 0
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
