package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inventory_reservation_conflicts_total",
	Help: "Reservations rejected because a line had insufficient stock",
})

// MySQLInventoryLedger holds the authoritative stock counts. Reserve and
// Release are the only writers of products.stock_quantity.
type MySQLInventoryLedger struct{ db *sql.DB }

func NewMySQLInventoryLedger(db *sql.DB) *MySQLInventoryLedger {
	return &MySQLInventoryLedger{db: db}
}

// Reserve decrements every line or none. The conditional UPDATE keeps the
// check and the decrement in one statement, and the surrounding transaction
// makes the whole batch atomic: a later line's shortfall rolls back the
// earlier decrements. Two concurrent reservations over the same row serialize
// on the row lock, so stock can never go negative.
func (r *MySQLInventoryLedger) Reserve(ctx context.Context, lines []domain.OrderLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, l := range lines {
		res, err := tx.ExecContext(ctx, `
UPDATE products
SET stock_quantity = stock_quantity - ?, updated_at = NOW()
WHERE id = ? AND stock_quantity >= ?`,
			l.Quantity, l.ProductID, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("reserve %s: %w", l.ProductID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return r.shortfall(ctx, tx, l)
		}
	}

	return tx.Commit()
}

// shortfall decides between "unknown product" and "not enough stock" for the
// line that failed. Either way the deferred rollback undoes the batch.
func (r *MySQLInventoryLedger) shortfall(ctx context.Context, tx *sql.Tx, l domain.OrderLine) error {
	var available int
	err := tx.QueryRowContext(ctx,
		`SELECT stock_quantity FROM products WHERE id = ?`, l.ProductID,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, l.ProductID)
	}
	if err != nil {
		return fmt.Errorf("check stock %s: %w", l.ProductID, err)
	}
	reservationConflicts.Inc()
	return &domain.InsufficientStockError{
		ProductID: l.ProductID,
		Requested: l.Quantity,
		Available: available,
	}
}

// Release reverses a reservation (order-creation compensation or
// cancellation restock).
func (r *MySQLInventoryLedger) Release(ctx context.Context, lines []domain.OrderLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, l := range lines {
		if _, err := tx.ExecContext(ctx, `
UPDATE products
SET stock_quantity = stock_quantity + ?, updated_at = NOW()
WHERE id = ?`,
			l.Quantity, l.ProductID,
		); err != nil {
			return fmt.Errorf("release %s: %w", l.ProductID, err)
		}
	}

	return tx.Commit()
}

var _ usecase.InventoryLedger = (*MySQLInventoryLedger)(nil)
