package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host               string
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		LoginRateLimit     int
		LoginRateWindow    time.Duration
	}

	dbConfig struct {
		Engine        string // postgres | inmem
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	adminConfig struct {
		Username     string
		PasswordHash string // bcrypt; see `admin hashpassword`
	}

	importConfig struct {
		UploadsDir    string // report temp files; OS temp dir when empty
		MaxUploadSize int64
		Notify        bool // welcome email to provisioned accounts
	}

	emailConfig struct {
		DefaultFrom    string
		SendgridAPIKey string
	}

	Config struct {
		AppName         string
		Build           string
		Env             string
		Debug           bool
		TestMode        bool
		SecretKey       string
		FrontendBaseURL string
		RollbarToken    string
		WorkDir         string

		Server   serverConfig
		Database dbConfig
		Admin    adminConfig
		Import   importConfig
		Email    emailConfig
	}
)

func (db dbConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.Email.DefaultFrom)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = conf.AppName
	}
	return *addr
}

// NewConfig loads the configuration from the environment.
// ENV selects the optional dotenv file: config/.env.<env>.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("app_name", "Shule")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("test_mode", env == "TEST")
	v.SetDefault("secret_key", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("rollbar_token", "")

	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_debug_address", ":4000")
	v.SetDefault("server_shutdown_timeout", 5*time.Second)
	v.SetDefault("server_jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("server_login_rate_limit", 10)
	v.SetDefault("server_login_rate_window", time.Minute)

	v.SetDefault("db_engine", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "shule")
	v.SetDefault("db_password", "shule")
	v.SetDefault("db_admin_user", "")
	v.SetDefault("db_admin_password", "")
	v.SetDefault("db_name", "shule")
	v.SetDefault("db_disable_tls", true)

	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password_hash", "")

	v.SetDefault("import_uploads_dir", "")
	v.SetDefault("import_max_upload_size", int64(10<<20))
	v.SetDefault("import_notify", false)

	v.SetDefault("email_default_from", "Shule <noreply@localhost>")
	v.SetDefault("email_sendgrid_api_key", "")

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:         v.GetString("app_name"),
		Build:           v.GetString("build"),
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("test_mode"),
		SecretKey:       v.GetString("secret_key"),
		FrontendBaseURL: v.GetString("frontend_base_url"),
		RollbarToken:    v.GetString("rollbar_token"),
		WorkDir:         wd,
	}
	conf.Server = serverConfig{
		Host:               v.GetString("server_host"),
		Address:            v.GetString("server_address"),
		DebugAddress:       v.GetString("server_debug_address"),
		ShutdownTimeout:    v.GetDuration("server_shutdown_timeout"),
		JWTExpirationDelta: v.GetDuration("server_jwt_expiration_delta"),
		LoginRateLimit:     v.GetInt("server_login_rate_limit"),
		LoginRateWindow:    v.GetDuration("server_login_rate_window"),
	}
	conf.Database = dbConfig{
		Engine:        v.GetString("db_engine"),
		Host:          v.GetString("db_host"),
		Port:          v.GetString("db_port"),
		User:          v.GetString("db_user"),
		Password:      v.GetString("db_password"),
		AdminUser:     v.GetString("db_admin_user"),
		AdminPassword: v.GetString("db_admin_password"),
		Name:          v.GetString("db_name"),
		DisableTLS:    v.GetBool("db_disable_tls"),
	}
	conf.Admin = adminConfig{
		Username:     v.GetString("admin_username"),
		PasswordHash: v.GetString("admin_password_hash"),
	}
	conf.Import = importConfig{
		UploadsDir:    v.GetString("import_uploads_dir"),
		MaxUploadSize: v.GetInt64("import_max_upload_size"),
		Notify:        v.GetBool("import_notify"),
	}
	conf.Email = emailConfig{
		DefaultFrom:    v.GetString("email_default_from"),
		SendgridAPIKey: v.GetString("email_sendgrid_api_key"),
	}
	return conf
}
