package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores the application configuration.
// Values come from the environment (optionally seeded by a .env file), an
// optional config.yaml in the working directory, and finally the defaults below.
type Config struct {
	// 日志配置
	LogLevel      string
	LogFile       string
	LogMaxSize    int // megabytes
	LogMaxBackups int
	LogMaxAge     int // days

	// HTTP 服务
	HTTPAddr          string
	JWTSecret         string // Empty disables authentication on the API
	TokenTTL          time.Duration
	AdminUser         string
	AdminPasswordHash string // bcrypt

	// 数据库配置
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PlaylistTTL   time.Duration

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string
}

// defaults maps every configuration key to its default. Environment variables use
// the upper-cased key, e.g. DB_HOST or REDIS_PORT.
var defaults = map[string]interface{}{
	"log_level":           "info",
	"log_file":            "",
	"log_max_size":        100,
	"log_max_backups":     5,
	"log_max_age":         30,
	"http_addr":           ":8080",
	"jwt_secret":          "",
	"token_ttl":           "12h",
	"admin_user":          "admin",
	"admin_password_hash": "",
	"db_host":             "127.0.0.1",
	"db_port":             "3306",
	"db_user":             "root",
	"db_password":         "",
	"db_name":             "bpmshuffle",
	"redis_host":          "127.0.0.1",
	"redis_port":          "6379",
	"redis_password":      "",
	"redis_db":            0,
	"playlist_ttl":        "24h",
	"minio_endpoint":      "127.0.0.1:9000",
	"minio_access_key":    "",
	"minio_secret_key":    "",
	"minio_bucket":        "bpmshuffle",
	"minio_use_ssl":       false,
	"minio_region":        "us-east-1",
}

// Load loads configuration from environment variables (via .env file), an
// optional config.yaml, or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("Ignoring unreadable config.yaml: %v", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		LogLevel:      v.GetString("log_level"),
		LogFile:       v.GetString("log_file"),
		LogMaxSize:    v.GetInt("log_max_size"),
		LogMaxBackups: v.GetInt("log_max_backups"),
		LogMaxAge:     v.GetInt("log_max_age"),

		HTTPAddr:          v.GetString("http_addr"),
		JWTSecret:         v.GetString("jwt_secret"),
		TokenTTL:          v.GetDuration("token_ttl"),
		AdminUser:         v.GetString("admin_user"),
		AdminPasswordHash: v.GetString("admin_password_hash"),

		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),

		RedisHost:     v.GetString("redis_host"),
		RedisPort:     v.GetString("redis_port"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		PlaylistTTL:   v.GetDuration("playlist_ttl"),

		MinioEndpoint:  v.GetString("minio_endpoint"),
		MinioAccessKey: v.GetString("minio_access_key"),
		MinioSecretKey: v.GetString("minio_secret_key"),
		MinioBucket:    v.GetString("minio_bucket"),
		MinioUseSSL:    v.GetBool("minio_use_ssl"),
		MinioRegion:    v.GetString("minio_region"),
	}
}
