package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Media    MediaConfig
	PubSub   PubSubConfig
	Outbox        OutboxConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FLORAWEAVE_APP_ENV" required:"true"`
	Port         string   `envconfig:"FLORAWEAVE_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"FLORAWEAVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FLORAWEAVE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FLORAWEAVE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLORAWEAVE_DB_DSN"`
	Driver string `envconfig:"FLORAWEAVE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"FLORAWEAVE_DB_HOST"`
	Port     int    `envconfig:"FLORAWEAVE_DB_PORT" default:"5432"`
	User     string `envconfig:"FLORAWEAVE_DB_USER"`
	Password string `envconfig:"FLORAWEAVE_DB_PASSWORD"`
	Name     string `envconfig:"FLORAWEAVE_DB_NAME"`
	SSLMode  string `envconfig:"FLORAWEAVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLORAWEAVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLORAWEAVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLORAWEAVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLORAWEAVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLORAWEAVE_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"FLORAWEAVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLORAWEAVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLORAWEAVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLORAWEAVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLORAWEAVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FLORAWEAVE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FLORAWEAVE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FLORAWEAVE_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"FLORAWEAVE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FLORAWEAVE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FLORAWEAVE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FLORAWEAVE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FLORAWEAVE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FLORAWEAVE_ARGON_KEY_LEN" default:"32"`
}

type MediaConfig struct {
	StorageRoot        string `envconfig:"FLORAWEAVE_MEDIA_STORAGE_ROOT" default:"./data/media"`
	PublicBaseURL      string `envconfig:"FLORAWEAVE_MEDIA_PUBLIC_BASE_URL" default:"/media"`
	MaxImageUploadMB   int    `envconfig:"FLORAWEAVE_MEDIA_MAX_IMAGE_MB" default:"10"`
	MaxDigitalUploadMB int    `envconfig:"FLORAWEAVE_MEDIA_MAX_DIGITAL_MB" default:"50"`
}

// MaxImageUploadBytes returns the reference/custom-field image cap in bytes.
func (m MediaConfig) MaxImageUploadBytes() int64 {
	return int64(m.MaxImageUploadMB) << 20
}

// MaxDigitalUploadBytes returns the digital-file cap in bytes.
func (m MediaConfig) MaxDigitalUploadBytes() int64 {
	return int64(m.MaxDigitalUploadMB) << 20
}

type PubSubConfig struct {
	ProjectID         string `envconfig:"FLORAWEAVE_PUBSUB_PROJECT_ID"`
	NotificationTopic string `envconfig:"FLORAWEAVE_PUBSUB_NOTIFICATION_TOPIC" default:"floraweave-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FLORAWEAVE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FLORAWEAVE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FLORAWEAVE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FLORAWEAVE_AUTH_RL_LOGIN_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"FLORAWEAVE_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"FLORAWEAVE_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"FLORAWEAVE_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"FLORAWEAVE_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"FLORAWEAVE_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLORAWEAVE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLORAWEAVE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "FLORAWEAVE_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "FLORAWEAVE_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "FLORAWEAVE_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("either FLORAWEAVE_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
