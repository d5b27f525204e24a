package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DatabaseURL string
	LogLevel    string
	LogFormat   string // "console" or "json"
	CORSOrigins string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	Storage StorageConfig
	Upload  UploadConfig
}

type StorageConfig struct {
	Driver string // "local" or "s3"

	LocalDir      string
	PublicBaseURL string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	// S3PublicURL is the base of asset URLs for s3 storage, e.g. a CDN.
	// Empty means <endpoint>/<bucket>.
	S3PublicURL string
}

type UploadConfig struct {
	MaxFileSize int64
	MaxFiles    int
	Concurrency int
	Quality     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("database_url", "catalog.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("cors_origins", "*")

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "catalog")
	v.SetDefault("jwt_ttl", "24h")

	v.SetDefault("storage_driver", "local")
	v.SetDefault("storage_local_dir", "./uploads")
	v.SetDefault("storage_public_base_url", "/uploads")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_use_ssl", true)
	v.SetDefault("s3_public_url", "")

	v.SetDefault("upload_max_file_size", 10<<20)
	v.SetDefault("upload_max_files", 10)
	v.SetDefault("upload_concurrency", 1)
	v.SetDefault("upload_quality", 60)
}

// Load reads the configuration with Read and validates it.
func Load(envFiles ...string) (Config, error) {
	cfg := Read(envFiles...)
	return cfg, cfg.Validate()
}

// Read reads .env files (missing files are ignored) and then the process
// environment, without validating the result.
func Read(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{
		Port:        v.GetString("port"),
		DatabaseURL: v.GetString("database_url"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		CORSOrigins: v.GetString("cors_origins"),
		JWTSecret:   v.GetString("jwt_secret"),
		JWTIssuer:   v.GetString("jwt_issuer"),
		JWTTTL:      v.GetDuration("jwt_ttl"),
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("storage_driver")),
			LocalDir:      v.GetString("storage_local_dir"),
			PublicBaseURL: v.GetString("storage_public_base_url"),
			S3Endpoint:    v.GetString("s3_endpoint"),
			S3Region:      v.GetString("s3_region"),
			S3Bucket:      v.GetString("s3_bucket"),
			S3AccessKey:   v.GetString("s3_access_key"),
			S3SecretKey:   v.GetString("s3_secret_key"),
			S3UseSSL:      v.GetBool("s3_use_ssl"),
			S3PublicURL:   v.GetString("s3_public_url"),
		},
		Upload: UploadConfig{
			MaxFileSize: v.GetInt64("upload_max_file_size"),
			MaxFiles:    v.GetInt("upload_max_files"),
			Concurrency: v.GetInt("upload_concurrency"),
			Quality:     v.GetInt("upload_quality"),
		},
	}
	return cfg
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR is required for local storage")
		}
	case "s3":
		if c.Storage.S3Endpoint == "" || c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Upload.MaxFiles <= 0 || c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload limits must be positive")
	}
	if c.Upload.Quality < 1 || c.Upload.Quality > 100 {
		return fmt.Errorf("UPLOAD_QUALITY must be within 1..100, got %d", c.Upload.Quality)
	}
	return nil
}

// BodyLimit is the largest multipart request the server accepts: a full batch of
// maximum-size files plus room for the form fields.
func (u UploadConfig) BodyLimit() int {
	return int(u.MaxFileSize)*u.MaxFiles + 1<<20
}
