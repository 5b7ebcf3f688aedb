// Package config loads layered configuration: configs/base.yaml, an optional
// configs/<env>.yaml, then DELIVERY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/auth"
	"github.com/jwillz7667/dank-deals-delivery-sub001/dispatch"
	"github.com/jwillz7667/dank-deals-delivery-sub001/notify"
	"github.com/jwillz7667/dank-deals-delivery-sub001/payments"
	"github.com/jwillz7667/dank-deals-delivery-sub001/pricing"
	"github.com/jwillz7667/dank-deals-delivery-sub001/ratelimit"
	"github.com/jwillz7667/dank-deals-delivery-sub001/telemetry"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const EnvPrefix = "DELIVERY_"

type Config struct {
	App struct {
		Name            string        `koanf:"name"`
		Env             string        `koanf:"env"`
		HTTPAddr        string        `koanf:"http_addr"`
		LogLevel        string        `koanf:"log_level"`
		LogFile         string        `koanf:"log_file"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout time.Duration `koanf:"read_timeout"`
		IdleTimeout time.Duration `koanf:"idle_timeout"`
		CORSOrigins []string      `koanf:"cors_origins"`
	} `koanf:"http"`

	Database struct {
		// Driver is postgres or memory.
		Driver          string        `koanf:"driver"`
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
		AutoMigrate     bool          `koanf:"auto_migrate"`
	} `koanf:"database"`

	Redis struct {
		Enabled  bool   `koanf:"enabled"`
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	RateLimit struct {
		API      ratelimit.Policy `koanf:"api"`
		Checkout ratelimit.Policy `koanf:"checkout"`
	} `koanf:"rate_limit"`

	Pricing struct {
		TaxRate               string `koanf:"tax_rate"`
		DeliveryFee           string `koanf:"delivery_fee"`
		FreeDeliveryThreshold string `koanf:"free_delivery_threshold"`
	} `koanf:"pricing"`

	Auth struct {
		Session  auth.SessionConfig  `koanf:"session"`
		Firebase auth.FirebaseConfig `koanf:"firebase"`
		Admins   []string            `koanf:"admins"`
	} `koanf:"auth"`

	Admin struct {
		APIKey string `koanf:"api_key"`
	} `koanf:"admin"`

	Payments struct {
		Client                payments.Config `koanf:"client"`
		WebhookSecret         string          `koanf:"webhook_secret"`
		IdentityWebhookSecret string          `koanf:"identity_webhook_secret"`
		SignatureTolerance    time.Duration   `koanf:"signature_tolerance"`
		MinAmount             string          `koanf:"min_amount"`
		MinimumAge            int             `koanf:"minimum_age"`
		IdentityReturnURL     string          `koanf:"identity_return_url"`
	} `koanf:"payments"`

	Tracking struct {
		// Mode is simulated or persisted.
		Mode     string        `koanf:"mode"`
		Interval time.Duration `koanf:"interval"`
		MaxTicks int           `koanf:"max_ticks"`
		StoreLat float64       `koanf:"store_lat"`
		StoreLng float64       `koanf:"store_lng"`
	} `koanf:"tracking"`

	RabbitMQ struct {
		Enabled  bool   `koanf:"enabled"`
		URL      string `koanf:"url"`
		Exchange string `koanf:"exchange"`
	} `koanf:"rabbitmq"`

	Kafka dispatch.Config `koanf:"kafka"`

	Notify struct {
		Email struct {
			Enabled bool              `koanf:"enabled"`
			SMTP    notify.SMTPConfig `koanf:"smtp"`
		} `koanf:"email"`
		Telegram struct {
			Enabled bool   `koanf:"enabled"`
			Token   string `koanf:"token"`
			ChatID  int64  `koanf:"chat_id"`
		} `koanf:"telegram"`
	} `koanf:"notify"`

	Telemetry telemetry.Config `koanf:"telemetry"`
}

// Default returns the values used when no file or variable sets a key.
func Default() Config {
	var c Config
	c.App.Name = "dank-deals-delivery"
	c.App.Env = "local"
	c.App.HTTPAddr = ":8080"
	c.App.LogLevel = "info"
	c.App.ShutdownTimeout = 15 * time.Second
	c.HTTP.ReadTimeout = 15 * time.Second
	c.HTTP.IdleTimeout = 60 * time.Second
	c.Database.Driver = "postgres"
	c.Database.MaxOpenConns = 20
	c.Database.MaxIdleConns = 5
	c.Database.ConnMaxLifetime = 30 * time.Minute
	c.RateLimit.API = ratelimit.Policy{Name: "api", Limit: 120, Window: time.Minute}
	c.RateLimit.Checkout = ratelimit.Policy{Name: "checkout", Limit: 10, Window: time.Minute}
	c.Pricing.TaxRate = "0.10"
	c.Pricing.DeliveryFee = "5.00"
	c.Pricing.FreeDeliveryThreshold = "0"
	c.Auth.Session.Issuer = "dank-deals-delivery"
	c.Auth.Session.TTL = 24 * time.Hour
	c.Auth.Session.Leeway = 30 * time.Second
	c.Payments.Client.Currency = "usd"
	c.Payments.Client.Timeout = 10 * time.Second
	c.Payments.Client.Retries = 2
	c.Payments.SignatureTolerance = payments.DefaultTolerance
	c.Payments.MinAmount = "0.50"
	c.Payments.MinimumAge = 21
	c.Tracking.Mode = "simulated"
	c.Tracking.Interval = 5 * time.Second
	c.Tracking.MaxTicks = 120
	c.Tracking.StoreLat = 44.9778
	c.Tracking.StoreLng = -93.2650
	c.RabbitMQ.Exchange = "order.events"
	c.Kafka.GroupID = "delivery-api"
	c.Kafka.Topic = "dispatch.status"
	c.Telemetry.SampleRatio = 1
	return c
}

// Load reads dir/base.yaml (required), dir/<envName>.yaml (optional) and the
// environment, e.g. DELIVERY_DATABASE__DSN.
func Load(dir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", dir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}
	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", dir, envName)), yaml.Parser())
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.App.HTTPAddr == "" {
		errs = append(errs, errors.New("app.http_addr required"))
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or memory, got %q", c.Database.Driver))
	}
	if len(c.Auth.Session.Secret) < 32 {
		errs = append(errs, errors.New("auth.session.secret must be at least 32 characters"))
	}
	if c.Payments.WebhookSecret == "" || c.Payments.IdentityWebhookSecret == "" {
		errs = append(errs, errors.New("payments.webhook_secret and payments.identity_webhook_secret required"))
	}
	if c.Tracking.Mode != "simulated" && c.Tracking.Mode != "persisted" {
		errs = append(errs, fmt.Errorf("tracking.mode must be simulated or persisted, got %q", c.Tracking.Mode))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr required when redis is enabled"))
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("rabbitmq.url required when rabbitmq is enabled"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers required when kafka is enabled"))
	}
	if _, err := c.PricingConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := decimal.NewFromString(c.Payments.MinAmount); err != nil {
		errs = append(errs, fmt.Errorf("payments.min_amount: %w", err))
	}
	return errors.Join(errs...)
}

// PricingConfig parses the pricing section.
func (c Config) PricingConfig() (pricing.Config, error) {
	var out pricing.Config
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"pricing.tax_rate", c.Pricing.TaxRate, &out.TaxRate},
		{"pricing.delivery_fee", c.Pricing.DeliveryFee, &out.DeliveryFee},
		{"pricing.free_delivery_threshold", c.Pricing.FreeDeliveryThreshold, &out.FreeDeliveryThreshold},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return out, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = d
	}
	return out, nil
}

func (c Config) MinAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(c.Payments.MinAmount)
	return d
}
