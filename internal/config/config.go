package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	SlotBackendMemory = "memory"
	SlotBackendRedis  = "redis"
)

// Config holds the server settings, read from WAREHOUSE_* environment
// variables.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":50051"`

	GameDSN      string `env:"GAME_DB_DSN" envDefault:"root:root@tcp(localhost:3306)/blgame01?parseTime=true"`
	WarehouseDSN string `env:"WAREHOUSE_DB_DSN" envDefault:"root:root@tcp(localhost:3306)/gamewarehousedb?parseTime=true"`
	ItemsDSN     string `env:"ITEMS_DB_DSN" envDefault:"root:root@tcp(localhost:3306)/gameitemsdb?parseTime=true"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"100"`

	SlotBackend string `env:"SLOT_BACKEND" envDefault:"redis"`
	JournalPath string `env:"JOURNAL_PATH" envDefault:"warehouse-journal.db"`

	GoodsNumber          int32         `env:"GOODS_NUMBER" envDefault:"233"`
	AllocationMaxTries   uint          `env:"ALLOCATION_MAX_TRIES" envDefault:"5"`
	AllocationBackoff    time.Duration `env:"ALLOCATION_BACKOFF" envDefault:"50ms"`
	RegistrationAttempts int           `env:"REGISTRATION_ATTEMPTS" envDefault:"3"`

	RepairWorkers   int           `env:"REPAIR_WORKERS" envDefault:"4"`
	RepairQueueSize int           `env:"REPAIR_QUEUE_SIZE" envDefault:"1000"`
	RepairInterval  time.Duration `env:"REPAIR_INTERVAL" envDefault:"1m"`
	RepairBatch     int           `env:"REPAIR_BATCH" envDefault:"100"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	Verbose      bool   `env:"LOG_VERBOSE" envDefault:"false"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses vars instead of the process environment when vars is
// non-nil.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: "WAREHOUSE_"}
	if vars != nil {
		opts.Environment = vars
	}

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.SlotBackend) {
	case SlotBackendMemory, SlotBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("slot backend %q must be %q or %q", c.SlotBackend, SlotBackendMemory, SlotBackendRedis))
	}
	if c.GameDSN == "" || c.WarehouseDSN == "" || c.ItemsDSN == "" {
		errs = append(errs, errors.New("game, warehouse and items database DSNs are required"))
	}
	if c.JournalPath == "" {
		errs = append(errs, errors.New("journal path is required"))
	}
	if c.GoodsNumber <= 0 {
		errs = append(errs, errors.New("goods number must be positive"))
	}
	if c.AllocationMaxTries == 0 {
		errs = append(errs, errors.New("allocation max tries must be at least 1"))
	}
	if c.RegistrationAttempts <= 0 {
		errs = append(errs, errors.New("registration attempts must be at least 1"))
	}
	if c.RepairWorkers <= 0 || c.RepairQueueSize <= 0 {
		errs = append(errs, errors.New("repair workers and queue size must be positive"))
	}
	if c.RepairInterval <= 0 {
		errs = append(errs, errors.New("repair interval must be positive"))
	}

	return errors.Join(errs...)
}
