package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amplerun/zain-crafter/internal/usecase"
)

// MySQLSettingsRepo reads the operator's notification settings row. The
// dispatcher fetches this on every dispatch so admin toggles take effect
// without a restart. When no row exists yet, the configured defaults apply.
type MySQLSettingsRepo struct {
	db       *sql.DB
	defaults usecase.NotificationConfig
}

func NewMySQLSettingsRepo(db *sql.DB, defaults usecase.NotificationConfig) *MySQLSettingsRepo {
	return &MySQLSettingsRepo{db: db, defaults: defaults}
}

func (r *MySQLSettingsRepo) NotificationConfig(ctx context.Context) (usecase.NotificationConfig, error) {
	var cfg usecase.NotificationConfig
	err := r.db.QueryRowContext(ctx, `
SELECT seller_alert_enabled, seller_address,
       customer_alert_enabled,
       audit_log_enabled, audit_sheet_id
FROM notification_settings LIMIT 1`,
	).Scan(
		&cfg.SellerAlertEnabled, &cfg.SellerAddress,
		&cfg.CustomerAlertEnabled,
		&cfg.AuditLogEnabled, &cfg.AuditSheetID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return r.defaults, nil
	}
	if err != nil {
		return usecase.NotificationConfig{}, err
	}
	return cfg, nil
}

var _ usecase.SettingsSource = (*MySQLSettingsRepo)(nil)
