// Package ledger persists the audit trail of approved purchases. The live
// flow state stays in memory; only completed payments are durable.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLite is the order ledger backed by a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the ledger database.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	ledger := &SQLite{db: db}
	if err := ledger.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return ledger, nil
}

func (s *SQLite) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		account_id INTEGER NOT NULL,
		account_name TEXT NOT NULL,
		desired_amount INTEGER NOT NULL,
		total_listed INTEGER NOT NULL,
		charged_cents INTEGER NOT NULL,
		payment_reference TEXT NOT NULL,
		payment_id TEXT NOT NULL,
		items_json TEXT NOT NULL,
		approved_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_payment_ref ON orders(payment_reference);
	CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertOrder records an approved purchase. Re-delivered webhook
// notifications hit the unique payment_reference index and are ignored.
func (s *SQLite) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `
	INSERT INTO orders (
		id, user_id, username, account_id, account_name,
		desired_amount, total_listed, charged_cents,
		payment_reference, payment_id, items_json, approved_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(payment_reference) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.Username, order.AccountID, order.AccountName,
		order.DesiredAmount, order.TotalListed, order.ChargedCents,
		order.PaymentReference, order.PaymentID, order.ItemsJSON,
		order.ApprovedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// OrderByReference retrieves one order by its payment reference.
func (s *SQLite) OrderByReference(ctx context.Context, reference string) (*domain.Order, error) {
	query := `
		SELECT id, user_id, username, account_id, account_name,
		       desired_amount, total_listed, charged_cents,
		       payment_reference, payment_id, items_json, approved_at
		FROM orders WHERE payment_reference = ?`

	row := s.db.QueryRowContext(ctx, query, reference)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}
	return order, nil
}

// ListOrders returns the most recent orders, newest first.
func (s *SQLite) ListOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, username, account_id, account_name,
		       desired_amount, total_listed, charged_cents,
		       payment_reference, payment_id, items_json, approved_at
		FROM orders ORDER BY approved_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var order domain.Order
	var approvedAt int64
	err := row.Scan(
		&order.ID, &order.UserID, &order.Username, &order.AccountID, &order.AccountName,
		&order.DesiredAmount, &order.TotalListed, &order.ChargedCents,
		&order.PaymentReference, &order.PaymentID, &order.ItemsJSON, &approvedAt,
	)
	if err != nil {
		return nil, err
	}
	order.ApprovedAt = time.Unix(approvedAt, 0)
	return &order, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
