package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "PARISH"

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	Debug       bool
	LogFormat   string

	PublicDir  string
	PrivateDir string

	Upload  Upload
	S3      S3
	NatsURL string
}

type Upload struct {
	Backend  string // "local" or "s3"
	Dir      string
	BaseURL  string
	MaxBytes int64
}

type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	PublicURL string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 80)
	v.SetDefault("db-url", "parish.sqlite")
	v.SetDefault("token-ttl", 120)
	v.SetDefault("debug", false)
	v.SetDefault("log-format", "text")
	v.SetDefault("public-dir", "public")
	v.SetDefault("private-dir", "private")
	v.SetDefault("upload.backend", "local")
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.base-url", "")
	v.SetDefault("upload.max-bytes", 10<<20)
	v.SetDefault("s3.region", "us-east-1")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges an explicit config file (yaml, toml or json) into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load reads every setting out of v. The token secret is only required by
// the HTTP server, so callers that do not serve pass requireSecret=false.
func Load(v *viper.Viper, requireSecret bool) (cfg Config, err error) {
	port := v.GetInt("port")
	if port <= 0 || port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", port)
	}
	cfg.Addr = net.JoinHostPort(v.GetString("host"), strconv.Itoa(port))
	cfg.DBUrl = v.GetString("db-url")
	cfg.TokenSecret = v.GetString("token-secret")
	cfg.TokenTTL = time.Duration(v.GetInt("token-ttl")) * time.Second
	cfg.Debug = v.GetBool("debug")
	cfg.LogFormat = v.GetString("log-format")
	cfg.PublicDir = v.GetString("public-dir")
	cfg.PrivateDir = v.GetString("private-dir")

	cfg.Upload = Upload{
		Backend:  v.GetString("upload.backend"),
		Dir:      v.GetString("upload.dir"),
		BaseURL:  strings.TrimSuffix(v.GetString("upload.base-url"), "/"),
		MaxBytes: v.GetInt64("upload.max-bytes"),
	}
	cfg.S3 = S3{
		Bucket:    v.GetString("s3.bucket"),
		Region:    v.GetString("s3.region"),
		Endpoint:  v.GetString("s3.endpoint"),
		PublicURL: strings.TrimSuffix(v.GetString("s3.public-url"), "/"),
	}
	cfg.NatsURL = v.GetString("nats.url")

	switch cfg.Upload.Backend {
	case "local":
	case "s3":
		if cfg.S3.Bucket == "" {
			return cfg, errors.New("missing parameter s3.bucket for upload.backend=s3")
		}
	default:
		return cfg, fmt.Errorf("unknown upload.backend %q", cfg.Upload.Backend)
	}

	if requireSecret && cfg.TokenSecret == "" {
		return cfg, errors.New("missing parameter token-secret")
	}
	return cfg, nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

// UploadBaseURL is the public prefix of locally stored uploads.
func (cfg Config) UploadBaseURL() string {
	if cfg.Upload.BaseURL != "" {
		return cfg.Upload.BaseURL
	}
	return cfg.Url() + "/uploads"
}
