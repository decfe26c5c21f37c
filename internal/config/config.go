package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver   string // auto, sqlite, mysql
	Path     string // sqlite file
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	MaxOpen  int
	MaxIdle  int
}

// Resolve returns the effective driver. "auto" picks mysql whenever a
// database host is configured, otherwise the embedded sqlite file.
func (c DatabaseConfig) Resolve() string {
	if c.Driver != "" && c.Driver != "auto" {
		return c.Driver
	}
	if c.Host != "" {
		return "mysql"
	}
	return "sqlite"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BoothConfig struct {
	CodeWindow    time.Duration // pending session lifetime
	PhotoWindow   time.Duration // verified session lifetime
	SweepInterval time.Duration
	Retention     time.Duration // hard cap on any session's age
	MaxPhotoBytes int64
	PhotosDir     string
	StatsFile     string
	HistoryFile   string
	HistoryLimit  int
	ImagesDir     string
	KioskFile     string
	ExposeCode    bool // include verification_code in register responses
}

type MessagingConfig struct {
	Service       string // local, twilio, email
	FallbackLocal bool

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	MediaBaseURL     string // public URL prefix for MMS media, optional

	EmailAddress  string
	EmailPassword string
	SMTPServer    string
	SMTPPort      int
}

type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type AdminConfig struct {
	Password     string
	PasswordHash string // argon2id encoded; takes precedence over Password
	JWTSecret    string
	SessionTTL   time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Booth            BoothConfig
	Messaging        MessagingConfig
	Archive          ArchiveConfig
	Admin            AdminConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SELFIEBOOTH")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 5001)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("database.driver", "auto")
	v.SetDefault("database.path", "selfie_booth.db")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.maxopen", 10)
	v.SetDefault("database.maxidle", 5)

	v.SetDefault("redis.db", 0)

	v.SetDefault("booth.codewindow", "2m")
	v.SetDefault("booth.photowindow", "3m")
	v.SetDefault("booth.sweepinterval", "1m")
	v.SetDefault("booth.retention", "30m")
	v.SetDefault("booth.maxphotobytes", 16*1024*1024)
	v.SetDefault("booth.photosdir", "photos")
	v.SetDefault("booth.statsfile", "cumulative_stats.json")
	v.SetDefault("booth.historyfile", "session_history.json")
	v.SetDefault("booth.historylimit", 1000)
	v.SetDefault("booth.imagesdir", "session_images")
	v.SetDefault("booth.kioskfile", "kiosk_status.json")
	v.SetDefault("booth.exposecode", false)

	v.SetDefault("messaging.service", "local")
	v.SetDefault("messaging.fallbacklocal", true)
	v.SetDefault("messaging.smtpserver", "smtp.gmail.com")
	v.SetDefault("messaging.smtpport", 587)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.bucket", "selfie-booth-photos")
	v.SetDefault("archive.usessl", false)
	v.SetDefault("archive.region", "us-east-1")

	v.SetDefault("admin.password", "admin123")
	v.SetDefault("admin.jwtsecret", "change-me-in-production")
	v.SetDefault("admin.sessionttl", "2h")
}
