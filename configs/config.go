package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type ClientCred struct {
	ID     string `koanf:"id"`
	Secret string `koanf:"secret"`
	Name   string `koanf:"name"`
	Role   string `koanf:"role"` // customer | seller | admin
}

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		CacheTTL time.Duration `koanf:"cache_ttl"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Rabbit struct {
		Enabled bool   `koanf:"enabled"`
		URL     string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Enabled       bool     `koanf:"enabled"`
		Brokers       []string `koanf:"brokers"`
		TopicPayments string   `koanf:"topic_payments"`
		GroupID       string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
		Clients   []ClientCred  `koanf:"clients"`
	} `koanf:"security"`

	Notify struct {
		WhatsAppBaseURL string        `koanf:"whatsapp_base_url"`
		WhatsAppAPIKey  string        `koanf:"whatsapp_api_key"`
		SheetsBaseURL   string        `koanf:"sheets_base_url"`
		SheetsToken     string        `koanf:"sheets_token"`
		ChannelTimeout  time.Duration `koanf:"channel_timeout"`

		// Defaults used until the operator saves a settings row.
		SellerAlertEnabled   bool   `koanf:"seller_alert_enabled"`
		SellerAddress        string `koanf:"seller_address"`
		CustomerAlertEnabled bool   `koanf:"customer_alert_enabled"`
		AuditLogEnabled      bool   `koanf:"audit_log_enabled"`
		AuditSheetID         string `koanf:"audit_sheet_id"`
	} `koanf:"notify"`

	Dispatch struct {
		QueueSize int `koanf:"queue_size"`
		Workers   int `koanf:"workers"`
	} `koanf:"dispatch"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env overlay (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix FULFILL_, nested with __)
	// e.g. FULFILL_MYSQL__DSN, FULFILL_NOTIFY__WHATSAPP_API_KEY
	if err := k.Load(env.Provider("FULFILL_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "FULFILL_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	if c.Rabbit.Enabled && c.Rabbit.URL == "" {
		return fmt.Errorf("rabbitmq.url required when rabbitmq.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka.enabled")
	}
	return nil
}
