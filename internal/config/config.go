package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is the JWT_SECRET used when none is set.
const DefaultJWTSecret = "devsecret"

// ErrDefaultJWTSecret is returned when the gRPC server listens beyond
// loopback with the default JWT secret.
var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set when GRPC_HOST is not a loopback address")

// Config contains daemon configuration parameters.
type Config struct {
	LogLevel     int          `env:"LOG_LEVEL" envDefault:"0"`
	Notifier     string       `env:"NOTIFIER" envDefault:"bridge"`
	Notification Notification `envPrefix:"NOTIFICATION_"`
	GRPC         GRPC         `envPrefix:"GRPC_"`
	HTTP         HTTP         `envPrefix:"HTTP_"`
	Database     Database     `envPrefix:"DATABASE_"`
	JWT          JWT          `envPrefix:"JWT_"`
	SMTP         SMTP         `envPrefix:"SMTP_"`
	Mail         Mail         `envPrefix:"MAIL_"`
	Rules        Rules        `envPrefix:"RULES_"`
	Storage      Storage      `envPrefix:"MINIO_"`
}

// Notification contains the texts of the companion notification.
type Notification struct {
	Title string `env:"TITLE" envDefault:"Blocking is on"`
	Body  string `env:"BODY" envDefault:"The blocked app will send you home."`
}

// GRPC contains gRPC server parameters.
type GRPC struct {
	Host               string `env:"HOST" envDefault:"127.0.0.1"`
	Port               string `env:"PORT" envDefault:"50051"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// HTTP contains status endpoint parameters. An empty address disables it.
type HTTP struct {
	Addr string `env:"ADDR" envDefault:"127.0.0.1:8089"`
}

// Database contains preference database parameters.
type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:appblock.db?_busy_timeout=5000"`
}

// JWT contains JWT-related parameters.
type JWT struct {
	Secret    string        `env:"SECRET" envDefault:"devsecret"`
	ClientTTL time.Duration `env:"CLIENT_TTL" envDefault:"720h"`
}

// UsesDefaultSecret reports whether tokens are signed with DefaultJWTSecret,
// which anyone can use to mint them.
func (j JWT) UsesDefaultSecret() bool {
	return j.Secret == DefaultJWTSecret
}

// SMTP contains outgoing mail server parameters.
type SMTP struct {
	Host     string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Mail contains the texts of outgoing emails.
type Mail struct {
	OtpTitle            string `env:"OTP_TITLE" envDefault:"Verification code"`
	OtpDescription      string `env:"OTP_DESCRIPTION" envDefault:"Enter this code to register your email."`
	OtpExtra            string `env:"OTP_EXTRA" envDefault:"The code expires in 3 minutes."`
	RecoveryTitle       string `env:"RECOVERY_TITLE" envDefault:"Temporary password"`
	RecoveryDescription string `env:"RECOVERY_DESCRIPTION" envDefault:"Use this password to turn blocking off."`
	RecoveryExtra       string `env:"RECOVERY_EXTRA" envDefault:"Set a new password the next time you turn blocking on."`
}

// Rules contains detection rule sources.
type Rules struct {
	File            string        `env:"FILE"`
	Object          string        `env:"OBJECT" envDefault:"rules.yaml"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"10m"`
}

// Storage contains object storage parameters.
type Storage struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"appblock-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"appblock-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"appblock-rules"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.JWT.UsesDefaultSecret() && !isLoopback(cfg.GRPC.Host) {
		return nil, ErrDefaultJWTSecret
	}

	return &cfg, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
