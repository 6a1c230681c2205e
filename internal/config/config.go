package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "CEMS"

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Razorpay   *RazorpayConfig   `mapstructure:"razorpay"`
	QR         *QRConfig         `mapstructure:"qr"`
	Mail       *MailConfig       `mapstructure:"mail"`
	Outbox     *OutboxConfig     `mapstructure:"outbox"`
	Kafka      *KafkaConfig      `mapstructure:"kafka"`
	Reminder   *ReminderConfig   `mapstructure:"reminder"`
	Cloudinary *CloudinaryConfig `mapstructure:"cloudinary"`
	Admin      *AdminConfig      `mapstructure:"admin"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	URL      string `mapstructure:"url"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type RazorpayConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	Currency  string `mapstructure:"currency"`
}

type QRConfig struct {
	SigningKey   string        `mapstructure:"signing_key"`
	Grace        time.Duration `mapstructure:"grace"`
	RequireToken bool          `mapstructure:"require_token"`
	Size         int           `mapstructure:"size"`
}

type MailConfig struct {
	Provider       string `mapstructure:"provider"` // "console" or "sendgrid"
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
	FrontendURL    string `mapstructure:"frontend_url"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	GroupID  string   `mapstructure:"group_id"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
}

type ReminderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
	Timezone string `mapstructure:"timezone"`
}

type CloudinaryConfig struct {
	URL          string `mapstructure:"url"`
	BannerFolder string `mapstructure:"banner_folder"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// Load reads the yaml file at path and overlays environment variables
// such as CEMS_API_PORT or CEMS_RAZORPAY_KEY_SECRET.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		// Running components keep their values; a restart applies the change.
		zap.L().Info("config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "5000")
	v.SetDefault("api.jwt_ttl", 7*24*time.Hour)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.url", "")
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("qr.grace", 24*time.Hour)
	v.SetDefault("qr.require_token", true)
	v.SetDefault("qr.size", 256)
	v.SetDefault("mail.provider", "console")
	v.SetDefault("mail.from_name", "CEMS")
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.batch_size", 20)
	v.SetDefault("outbox.max_attempts", 5)
	v.SetDefault("kafka.topic", "cems.mail")
	v.SetDefault("kafka.group_id", "cems-mailer")
	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.schedule", "0 9 * * *")
	v.SetDefault("reminder.timezone", "Local")
	v.SetDefault("cloudinary.banner_folder", "cems/banners")
	v.SetDefault("admin.name", "Admin")
}

// bindEnv registers the keys that have no default. Unmarshal only sees env
// vars for keys viper already knows about. Must run after SetEnvPrefix.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"api.base_url", "api.allowed_cors_domains", "api.jwt_signing_key",
		"postgres.host", "postgres.port", "postgres.user", "postgres.password", "postgres.db",
		"razorpay.key_id", "razorpay.key_secret",
		"qr.signing_key",
		"mail.sendgrid_api_key", "mail.from_email", "mail.frontend_url",
		"kafka.enabled", "kafka.brokers", "kafka.username", "kafka.password",
		"cloudinary.url",
		"admin.email", "admin.password",
	} {
		_ = v.BindEnv(key) // only fails without a key
	}
}

func (c *AppConfig) validate() error {
	if c.API == nil || c.API.JWTSigningKey == "" {
		return fmt.Errorf("api.jwt_signing_key is required")
	}
	if c.QR == nil || c.QR.SigningKey == "" {
		return fmt.Errorf("qr.signing_key is required")
	}
	if c.Mail != nil && c.Mail.Provider != "console" && c.Mail.Provider != "sendgrid" {
		return fmt.Errorf("mail.provider must be console or sendgrid, got %q", c.Mail.Provider)
	}
	if c.Kafka != nil && c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka.enabled is true")
	}

	return nil
}
