package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/amplerun/zain-crafter/internal/entity"
	"github.com/amplerun/zain-crafter/internal/usecase"
)

// MySQLCatalogReader is the read-only catalog collaborator: price and name
// snapshots come from here, stock mutation never does.
type MySQLCatalogReader struct{ db *sql.DB }

func NewMySQLCatalogReader(db *sql.DB) *MySQLCatalogReader { return &MySQLCatalogReader{db: db} }

func (r *MySQLCatalogReader) GetProduct(ctx context.Context, id string) (usecase.Product, error) {
	var p usecase.Product
	err := r.db.QueryRowContext(ctx, `
SELECT id,name,unit_cents,stock_quantity FROM products WHERE id=?`, id,
	).Scan(&p.ID, &p.Name, &p.UnitCents, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return usecase.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return usecase.Product{}, err
	}
	return p, nil
}

var _ usecase.Catalog = (*MySQLCatalogReader)(nil)
