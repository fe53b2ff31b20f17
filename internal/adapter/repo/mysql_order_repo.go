package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderColumns = `id,customer_id,customer_name,
ship_street,ship_city,ship_region,ship_postal,ship_country,ship_phone,
payment_method,items_cents,tax_cents,shipping_cents,grand_cents,
status,is_paid,paid_at,is_delivered,delivered_at,
tracking_number,notes,payment_id,payment_status,payment_email,
created_at,updated_at`

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	payID, payStatus, payEmail := paymentCols(o.PaymentResult)
	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (`+orderColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.CustomerID, o.CustomerName,
		o.ShippingAddr.Street, o.ShippingAddr.City, o.ShippingAddr.Region,
		o.ShippingAddr.Postal, o.ShippingAddr.Country, o.ShippingAddr.Phone,
		o.PaymentMethod, o.ItemsCents, o.TaxCents, o.ShippingCents, o.GrandCents,
		string(o.Status), o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt,
		o.TrackingNumber, o.Notes, payID, payStatus, payEmail,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO order_lines (order_id,line_no,product_id,name,quantity,unit_cents)
VALUES (?,?,?,?,?,?)`,
			o.ID, i, l.ProductID, l.Name, l.Quantity, l.UnitCents,
		); err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}

	for ch, st := range o.Notifications {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO order_notifications (order_id,channel,state,detail,updated_at)
VALUES (?,?,?,'',NOW())`,
			o.ID, string(ch), string(st),
		); err != nil {
			return fmt.Errorf("insert notification state: %w", err)
		}
	}

	return tx.Commit()
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.hydrate(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *MySQLOrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id=? ORDER BY created_at DESC`, customerID)
}

func (r *MySQLOrderRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *MySQLOrderRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if err := r.hydrate(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update persists the mutable lifecycle fields. Lines are immutable after
// creation and are never touched here.
func (r *MySQLOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	payID, payStatus, payEmail := paymentCols(o.PaymentResult)
	_, err := r.db.ExecContext(ctx, `
UPDATE orders SET
  status=?, is_paid=?, paid_at=?, is_delivered=?, delivered_at=?,
  tracking_number=?, notes=?, payment_id=?, payment_status=?, payment_email=?,
  updated_at=?
WHERE id=?`,
		string(o.Status), o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt,
		o.TrackingNumber, o.Notes, payID, payStatus, payEmail,
		o.UpdatedAt, o.ID,
	)
	return err
}

func (r *MySQLOrderRepo) SetNotificationState(ctx context.Context, orderID string, ch domain.Channel, st domain.SendState, detail string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO order_notifications (order_id,channel,state,detail,updated_at)
VALUES (?,?,?,?,NOW())
ON DUPLICATE KEY UPDATE state=VALUES(state), detail=VALUES(detail), updated_at=NOW()`,
		orderID, string(ch), string(st), detail,
	)
	return err
}

func (r *MySQLOrderRepo) hydrate(ctx context.Context, o *domain.Order) error {
	lines, err := r.db.QueryContext(ctx, `
SELECT product_id,name,quantity,unit_cents
FROM order_lines WHERE order_id=? ORDER BY line_no`, o.ID)
	if err != nil {
		return err
	}
	defer lines.Close()
	for lines.Next() {
		var l domain.OrderLine
		if err := lines.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.UnitCents); err != nil {
			return err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := lines.Err(); err != nil {
		return err
	}

	o.Notifications = domain.NewNotificationState()
	states, err := r.db.QueryContext(ctx, `
SELECT channel,state FROM order_notifications WHERE order_id=?`, o.ID)
	if err != nil {
		return err
	}
	defer states.Close()
	for states.Next() {
		var ch, st string
		if err := states.Scan(&ch, &st); err != nil {
			return err
		}
		o.Notifications[domain.Channel(ch)] = domain.SendState(st)
	}
	return states.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var status string
	var paidAt, deliveredAt sql.NullTime
	var tracking, notes sql.NullString
	var payID, payStatus, payEmail sql.NullString
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName,
		&o.ShippingAddr.Street, &o.ShippingAddr.City, &o.ShippingAddr.Region,
		&o.ShippingAddr.Postal, &o.ShippingAddr.Country, &o.ShippingAddr.Phone,
		&o.PaymentMethod, &o.ItemsCents, &o.TaxCents, &o.ShippingCents, &o.GrandCents,
		&status, &o.IsPaid, &paidAt, &o.IsDelivered, &deliveredAt,
		&tracking, &notes, &payID, &payStatus, &payEmail,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	o.TrackingNumber = tracking.String
	o.Notes = notes.String
	if payID.Valid && payID.String != "" {
		o.PaymentResult = &domain.PaymentResult{ID: payID.String, Status: payStatus.String, Email: payEmail.String}
	}
	return &o, nil
}

// paymentCols flattens the optional payment result for the three payment_*
// placeholders.
func paymentCols(p *domain.PaymentResult) (string, string, string) {
	if p == nil {
		return "", "", ""
	}
	return p.ID, p.Status, p.Email
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
