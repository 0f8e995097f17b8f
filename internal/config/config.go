package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ikoiii/booking-futsal/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Auth       AuthConfig       `yaml:"auth"`
	Booking    BookingConfig    `yaml:"booking"`
	Events     EventsConfig     `yaml:"events"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Worker     WorkerConfig     `yaml:"worker"`
	Seed       SeedConfig       `yaml:"seed"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Driver string      `yaml:"driver"` // sqlite | mysql
	Path   string      `yaml:"path"`
	MySQL  MySQLConfig `yaml:"mysql"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

// APIAuthConfig guards the gRPC availability service with static API keys.
type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// AuthConfig configures end-user sessions.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	CookieName    string        `yaml:"cookie_name"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	LoginAttempts int           `yaml:"login_attempts"`
	LockoutWindow time.Duration `yaml:"lockout_window"`
}

// BookingConfig holds the booking rules.
type BookingConfig struct {
	OpenHour             int           `yaml:"open_hour"`
	CloseHour            int           `yaml:"close_hour"`
	MinDurationHours     int           `yaml:"min_duration_hours"`
	MaxDurationHours     int           `yaml:"max_duration_hours"`
	MaxDaysAdvance       int           `yaml:"max_days_advance"`
	CancellationDeadline time.Duration `yaml:"cancellation_deadline"`
	Timezone             string        `yaml:"timezone"`
}

type EventsConfig struct {
	AMQPURL    string `yaml:"amqp_url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

type TelegramConfig struct {
	BotToken     string  `yaml:"bot_token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	Debug        bool    `yaml:"debug"`
}

type GoogleConfig struct {
	CredentialsFile       string `yaml:"credentials_file"`
	BookingsSpreadsheetID string `yaml:"bookings_spreadsheet_id"`
}

type WorkerConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	BaseDelay    time.Duration `yaml:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	QueueKey     string        `yaml:"queue_key"`
}

type SeedConfig struct {
	LapangansPath string `yaml:"lapangans_path"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminName     string `yaml:"admin_name"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case "mysql":
		if c.Database.MySQL.Host == "" || c.Database.MySQL.DBName == "" {
			return errors.New("mysql host and dbname are required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}

	return c.Booking.Validate()
}

// Validate checks the booking rules for consistency.
func (b BookingConfig) Validate() error {
	if b.OpenHour < 0 || b.CloseHour > 24 || b.OpenHour >= b.CloseHour {
		return fmt.Errorf("invalid operating hours %d-%d", b.OpenHour, b.CloseHour)
	}
	if b.MinDurationHours < 1 || b.MaxDurationHours < b.MinDurationHours {
		return fmt.Errorf("invalid duration bounds %d-%d", b.MinDurationHours, b.MaxDurationHours)
	}
	if b.MaxDaysAdvance < 0 {
		return errors.New("max_days_advance must not be negative")
	}
	if _, err := time.LoadLocation(b.Timezone); err != nil {
		return fmt.Errorf("invalid booking timezone %q: %w", b.Timezone, err)
	}
	return nil
}

// Location resolves the configured booking timezone, falling back to WIB.
func (b BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "booking-futsal"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.MySQL.Port == 0 {
		c.Database.MySQL.Port = 3306
	}
	if c.Database.MySQL.MaxOpenConns == 0 {
		c.Database.MySQL.MaxOpenConns = 25
	}
	if c.Database.MySQL.MaxIdleConns == 0 {
		c.Database.MySQL.MaxIdleConns = 25
	}
	if c.Database.MySQL.ConnMaxLifetime == 0 {
		c.Database.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "auth-token"
	}
	if c.Auth.LoginAttempts == 0 {
		c.Auth.LoginAttempts = 5
	}
	if c.Auth.LockoutWindow == 0 {
		c.Auth.LockoutWindow = 15 * time.Minute
	}

	if c.Booking.OpenHour == 0 && c.Booking.CloseHour == 0 {
		c.Booking.OpenHour = models.DefaultOpenHour
		c.Booking.CloseHour = models.DefaultCloseHour
	}
	if c.Booking.MinDurationHours == 0 {
		c.Booking.MinDurationHours = models.DefaultMinDurationHours
	}
	if c.Booking.MaxDurationHours == 0 {
		c.Booking.MaxDurationHours = models.DefaultMaxDurationHours
	}
	if c.Booking.MaxDaysAdvance == 0 {
		c.Booking.MaxDaysAdvance = models.DefaultMaxDaysAdvance
	}
	if c.Booking.CancellationDeadline == 0 {
		c.Booking.CancellationDeadline = models.DefaultCancellationDeadline * time.Hour
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Asia/Jakarta"
	}

	if c.Events.Exchange == "" {
		c.Events.Exchange = "futsal.bookings"
	}
	if c.Events.RoutingKey == "" {
		c.Events.RoutingKey = "booking.events"
	}

	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Worker.BaseDelay == 0 {
		c.Worker.BaseDelay = 2 * time.Second
	}
	if c.Worker.MaxDelay == 0 {
		c.Worker.MaxDelay = time.Minute
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = 5 * time.Second
	}
	if c.Worker.QueueKey == "" {
		c.Worker.QueueKey = "outbox:queue"
	}

	if c.Seed.LapangansPath == "" {
		c.Seed.LapangansPath = "configs/lapangans.yaml"
	}
}
