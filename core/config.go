package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var defaultSubjects = []string{
	"English", "Maths", "Science", "History", "Geography", "Social Studies",
	"Hindi", "Computer Science", "Physical Education", "Art", "Music",
}

type (
	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	SessionConfig struct {
		Store         string // memory | file | redis
		Path          string
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		RedisKey      string
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	SandboxConfig struct {
		AdminEmail    string
		AdminPassword string
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail string
		Subjects         []string

		API     APIConfig
		Session SessionConfig
		Server  ServerConfig
		Sandbox SandboxConfig
	}
)

// NewConfig reads the configuration from the environment.
// ENV selects the variables prefix (DEV by default) and the optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "EduDesk")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("subjects", strings.Join(defaultSubjects, ","))

	v.SetDefault("api_baseURL", "http://localhost:8000/api")
	v.SetDefault("api_timeout", 30*time.Second)

	v.SetDefault("session_store", "file")
	v.SetDefault("session_path", filepath.Join(userConfigDir(), "edudesk", "session.json"))
	v.SetDefault("session_redisAddr", "127.0.0.1:6379")
	v.SetDefault("session_redisPassword", "")
	v.SetDefault("session_redisDB", 0)
	v.SetDefault("session_redisKey", "edudesk:session")

	v.SetDefault("server_host", ":8000")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_jwtExpirationDelta", 15*time.Minute)
	v.SetDefault("server_jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("sandbox_adminEmail", "admin@edudesk.local")
	v.SetDefault("sandbox_adminPassword", "admin")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		Subjects:         splitList(v.GetString("subjects")),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api_baseURL"), "/"),
			Timeout: v.GetDuration("api_timeout"),
		},
		Session: SessionConfig{
			Store:         CleanString(v.GetString("session_store"), true /* lower */),
			Path:          v.GetString("session_path"),
			RedisAddr:     v.GetString("session_redisAddr"),
			RedisPassword: v.GetString("session_redisPassword"),
			RedisDB:       v.GetInt("session_redisDB"),
			RedisKey:      v.GetString("session_redisKey"),
		},
		Server: ServerConfig{
			Host:                      v.GetString("server_host"),
			DebugHost:                 v.GetString("server_debugHost"),
			ShutdownTimeout:           v.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server_jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server_jwtRefreshExpirationDelta"),
		},
		Sandbox: SandboxConfig{
			AdminEmail:    CleanString(v.GetString("sandbox_adminEmail"), true /* lower */),
			AdminPassword: v.GetString("sandbox_adminPassword"),
		},
	}
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
