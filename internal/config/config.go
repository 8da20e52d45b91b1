package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"PG_MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"PG_MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"PG_CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"PG_CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER" env-default:""`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

// Firestore holds the user-cart document store settings. An empty
// CredentialsFile means Application Default Credentials.
type Firestore struct {
	ProjectID       string `yaml:"FIRESTORE_PROJECT_ID" env:"FIRESTORE_PROJECT_ID" env-required:"true"`
	CredentialsFile string `yaml:"FIRESTORE_CREDENTIALS_FILE" env:"FIRESTORE_CREDENTIALS_FILE" env-default:""`
	CartsCollection string `yaml:"FIRESTORE_CARTS_COLLECTION" env:"FIRESTORE_CARTS_COLLECTION" env-default:"carts"`
}

type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"15s"`
}

type Stripe struct {
	APIKey        string `yaml:"STRIPE_API_KEY" env:"STRIPE_API_KEY" env-default:""`
	WebhookSecret string `yaml:"STRIPE_WEBHOOK_SECRET" env:"STRIPE_WEBHOOK_SECRET" env-default:""`
}

// SSLCommerz holds the hosted-redirect gateway settings. BaseURL points at
// the sandbox by default.
type SSLCommerz struct {
	StoreID       string `yaml:"SSLCZ_STORE_ID" env:"SSLCZ_STORE_ID" env-default:""`
	StorePassword string `yaml:"SSLCZ_STORE_PASSWORD" env:"SSLCZ_STORE_PASSWORD" env-default:""`
	BaseURL       string `yaml:"SSLCZ_BASE_URL" env:"SSLCZ_BASE_URL" env-default:"https://sandbox.sslcommerz.com"`
}

type SendGrid struct {
	APIKey    string `yaml:"SENDGRID_API_KEY" env:"SENDGRID_API_KEY" env-default:""`
	FromEmail string `yaml:"SENDGRID_FROM_EMAIL" env:"SENDGRID_FROM_EMAIL" env-default:"orders@aurelle.example"`
	FromName  string `yaml:"SENDGRID_FROM_NAME" env:"SENDGRID_FROM_NAME" env-default:"Aurelle Beauty"`
}

type AMQP struct {
	URL string `yaml:"AMQP_URL" env:"AMQP_URL" env-default:""`
}

type Security struct {
	JWTKey string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
}

type Telemetry struct {
	Enabled      bool   `yaml:"OTEL_ENABLED" env:"OTEL_ENABLED" env-default:"false"`
	OTLPEndpoint string `yaml:"OTLP_ENDPOINT" env:"OTLP_ENDPOINT" env-default:"localhost:4318"`
}

// Checkout carries storefront-facing settings: where the browser lands after
// a gateway callback, the default currency, and how long a Stripe
// idempotency-key reservation lives.
type Checkout struct {
	StorefrontBaseURL string        `yaml:"STOREFRONT_BASE_URL" env:"STOREFRONT_BASE_URL" env-default:"http://localhost:3000"`
	ServerBaseURL     string        `yaml:"SERVER_BASE_URL" env:"SERVER_BASE_URL" env-default:"http://localhost:8080"`
	DefaultCurrency   string        `yaml:"DEFAULT_CURRENCY" env:"DEFAULT_CURRENCY" env-default:"USD"`
	IdempotencyTTL    time.Duration `yaml:"IDEMPOTENCY_TTL" env:"IDEMPOTENCY_TTL" env-default:"24h"`
}

type Config struct {
	Env          string `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer   `yaml:"http_server"`
	Database     Database     `yaml:"database"`
	RedisConnect RedisConnect `yaml:"redis"`
	Firestore    Firestore    `yaml:"firestore"`
	RateConfig   RateConfig   `yaml:"rateConfig"`
	Stripe       Stripe       `yaml:"stripe"`
	SSLCommerz   SSLCommerz   `yaml:"sslcommerz"`
	SendGrid     SendGrid     `yaml:"sendgrid"`
	AMQP         AMQP         `yaml:"amqp"`
	Security     Security     `yaml:"security"`
	Telemetry    Telemetry    `yaml:"telemetry"`
	Checkout     Checkout     `yaml:"checkout"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "gets the config flag value")

		flag.Parse()

		configPath = *flags

		if configPath == "" {
			log.Fatal("Config path is not set")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return &cfg
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	if r.Username == "" && r.Password == "" {
		return fmt.Sprintf("redis://%s:%s/%d", r.Host, r.Port, r.DB)
	}

	return fmt.Sprintf("redis://%s:%s@%s:%s/%d", r.Username, r.Password, r.Host, r.Port, r.DB)
}
