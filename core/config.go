package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var errMissingSecret = errors.New("config: jwt.secret (JWT_SECRET) must be set")

type (
	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string
		RateLimit        string

		Server   ServerConfig
		Database DatabaseConfig
		JWT      JWTConfig
		Uploads  UploadsConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine string // postgres | sqlite
		URL    string
	}

	JWTConfig struct {
		Secret          []byte
		ExpirationDelta time.Duration
	}

	UploadsConfig struct {
		Dir     string
		MaxSize int64
	}
)

func (sc ServerConfig) Address() string {
	return sc.Host + ":" + sc.Port
}

// NewConfig loads the configuration from the environment (and `config/.env.<env>` when present).
// It fails when no JWT secret is supplied.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", false)
	v.SetDefault("appName", "InFort RH")
	v.SetDefault("build", "dev")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rateLimit", "10-M")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.debugHost", "localhost:4001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expirationDelta", 7*24*time.Hour)
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.maxSize", int64(5*1024*1024))
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("database.engine", "DB_ENGINE")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("rollbarToken", "ROLLBAR_TOKEN")
	_ = v.BindEnv("sendgridApiKey", "SENDGRID_API_KEY")

	conf := &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		RateLimit:      v.GetString("rateLimit"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine: v.GetString("database.engine"),
			URL:    v.GetString("database.url"),
		},
		JWT: JWTConfig{
			Secret:          []byte(v.GetString("jwt.secret")),
			ExpirationDelta: v.GetDuration("jwt.expirationDelta"),
		},
		Uploads: UploadsConfig{
			Dir:     v.GetString("uploads.dir"),
			MaxSize: v.GetInt64("uploads.maxSize"),
		},
	}

	if len(conf.JWT.Secret) == 0 {
		return nil, errMissingSecret
	}
	if conf.Debug {
		log.Printf("config: env=%s engine=%s", conf.Env, conf.Database.Engine)
	}
	return conf, nil
}
