package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Square        SquareConfig
	Messaging     MessagingConfig
	Cron          CronConfig
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
	Env          string `envconfig:"PROMOTERHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"PROMOTERHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROMOTERHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROMOTERHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PROMOTERHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROMOTERHUB_DB_DSN"`
	Driver string `envconfig:"PROMOTERHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROMOTERHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PROMOTERHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROMOTERHUB_DB_USER"`
	LegacyPassword string `envconfig:"PROMOTERHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROMOTERHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROMOTERHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROMOTERHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROMOTERHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROMOTERHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROMOTERHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROMOTERHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROMOTERHUB_REDIS_ADDR"`
	Password     string        `envconfig:"PROMOTERHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROMOTERHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROMOTERHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROMOTERHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROMOTERHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROMOTERHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROMOTERHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PROMOTERHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PROMOTERHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PROMOTERHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PROMOTERHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PROMOTERHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PROMOTERHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PROMOTERHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PROMOTERHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PROMOTERHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PROMOTERHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PROMOTERHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PROMOTERHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PROMOTERHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PROMOTERHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PROMOTERHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROMOTERHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROMOTERHUB_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROMOTERHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PROMOTERHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PROMOTERHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AnalyticsTopic        string `envconfig:"PROMOTERHUB_PUBSUB_ANALYTICS_TOPIC" default:"ph-analytics-events"`
	AnalyticsSubscription string `envconfig:"PROMOTERHUB_PUBSUB_ANALYTICS_SUBSCRIPTION"`
	MessagingTopic        string `envconfig:"PROMOTERHUB_PUBSUB_MESSAGING_TOPIC" default:"ph-messaging-sends"`
	MessagingSubscription string `envconfig:"PROMOTERHUB_PUBSUB_MESSAGING_SUBSCRIPTION"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"PROMOTERHUB_BIGQUERY_DATASET" default:"promoterhub"`
	ResponseEventsTable string `envconfig:"PROMOTERHUB_BIGQUERY_RESPONSE_TABLE" default:"response_events"`
}

type SquareConfig struct {
	AccessToken    string `envconfig:"PROMOTERHUB_SQUARE_ACCESS_TOKEN"`
	Env            string `envconfig:"PROMOTERHUB_SQUARE_ENV" default:"sandbox"`
	LocationID     string `envconfig:"PROMOTERHUB_SQUARE_LOCATION_ID"`
	DefaultPlanID  string `envconfig:"PROMOTERHUB_SQUARE_DEFAULT_PLAN_ID"`
	WebhookSignKey string `envconfig:"PROMOTERHUB_SQUARE_WEBHOOK_SIGNATURE_KEY"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type MessagingConfig struct {
	DefaultFromEmail string `envconfig:"PROMOTERHUB_MESSAGING_FROM_EMAIL"`
	DefaultFromPhone string `envconfig:"PROMOTERHUB_MESSAGING_FROM_PHONE"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PROMOTERHUB_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
