// Package config loads mwspay command settings from flags, MWSPAY_*
// environment variables and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/spf13/viper"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/mwsapi"
	"github.com/thomasdesr/mwspay/transport"
)

const EnvPrefix = "MWSPAY"

// Keys shared by flags, env vars (MWSPAY_<KEY> with dots as underscores)
// and config files.
const (
	KeyMerchantID         = "merchant_id"
	KeyAccessKey          = "access_key"
	KeySecretKey          = "secret_key"
	KeyRegion             = "region"
	KeySandbox            = "sandbox"
	KeyApplicationName    = "application.name"
	KeyApplicationVersion = "application.version"
	KeyMaxRetries         = "max_retries"
	KeyPrivateKeyPath     = "private_key_path"
	KeyLogLevel           = "log.level"
	KeyLogDevelopment     = "log.development"
	KeyBind               = "server.bind"
	KeyTopics             = "server.topics"
	KeyRedisAddr          = "redis.addr"
	KeyRedisDB            = "redis.db"
	KeyDedupeTTL          = "redis.dedupe_ttl"
)

type Config struct {
	MerchantID string
	AccessKey  string
	SecretKey  string
	Region     mwsapi.Region
	Sandbox    bool

	ApplicationName    string
	ApplicationVersion string

	MaxRetries     int
	PrivateKeyPath string

	Log    LogConfig
	Server ServerConfig
	Redis  RedisConfig
}

type LogConfig struct {
	Level       string
	Development bool
}

type ServerConfig struct {
	Bind   string
	Topics []arn.ARN
}

// RedisConfig is optional; an empty Addr disables notification
// de-duplication.
type RedisConfig struct {
	Addr      string
	DB        int
	DedupeTTL time.Duration
}

// New returns a viper instance with defaults set and MWSPAY_* environment
// variables bound.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRegion, string(mwsapi.Region_NA))
	v.SetDefault(KeySandbox, false)
	v.SetDefault(KeyMaxRetries, transport.DefaultMaxRetries)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogDevelopment, false)
	v.SetDefault(KeyBind, ":8080")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyDedupeTTL, "24h")

	return v
}

// Load reads a Config out of v. Missing credentials are not an error: the
// client falls back to the default AWS credential chain.
func Load(v *viper.Viper) (*Config, error) {
	region := mwsapi.ToRegion(v.GetString(KeyRegion))
	if !region.IsValid() {
		return nil, fmt.Errorf("invalid %s %q", KeyRegion, v.GetString(KeyRegion))
	}

	maxRetries := v.GetInt(KeyMaxRetries)
	if maxRetries < 0 || maxRetries > transport.MaxRetryCeiling {
		return nil, fmt.Errorf("%s must be between 0 and %d, got %d", KeyMaxRetries, transport.MaxRetryCeiling, maxRetries)
	}

	if (v.GetString(KeyAccessKey) == "") != (v.GetString(KeySecretKey) == "") {
		return nil, fmt.Errorf("%s and %s must be set together", KeyAccessKey, KeySecretKey)
	}

	topics, err := parseTopics(v.GetStringSlice(KeyTopics))
	if err != nil {
		return nil, err
	}

	dedupeTTL, err := time.ParseDuration(v.GetString(KeyDedupeTTL))
	if err != nil {
		return nil, errorutil.Wrapf(err, "invalid %s", KeyDedupeTTL)
	}

	return &Config{
		MerchantID: v.GetString(KeyMerchantID),
		AccessKey:  v.GetString(KeyAccessKey),
		SecretKey:  v.GetString(KeySecretKey),
		Region:     region,
		Sandbox:    v.GetBool(KeySandbox),

		ApplicationName:    v.GetString(KeyApplicationName),
		ApplicationVersion: v.GetString(KeyApplicationVersion),

		MaxRetries:     maxRetries,
		PrivateKeyPath: v.GetString(KeyPrivateKeyPath),

		Log: LogConfig{
			Level:       v.GetString(KeyLogLevel),
			Development: v.GetBool(KeyLogDevelopment),
		},
		Server: ServerConfig{
			Bind:   v.GetString(KeyBind),
			Topics: topics,
		},
		Redis: RedisConfig{
			Addr:      v.GetString(KeyRedisAddr),
			DB:        v.GetInt(KeyRedisDB),
			DedupeTTL: dedupeTTL,
		},
	}, nil
}

// HasStaticCredentials reports whether an access key pair was configured.
func (c *Config) HasStaticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// parseTopics accepts ARNs either as separate entries or comma separated,
// which is how they arrive from an environment variable.
func parseTopics(raw []string) ([]arn.ARN, error) {
	var topics []arn.ARN
	for _, entry := range raw {
		for _, s := range strings.Split(entry, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}

			topic, err := arn.Parse(s)
			if err != nil {
				return nil, errorutil.Wrapf(err, "invalid topic ARN %q", s)
			}
			topics = append(topics, topic)
		}
	}
	return topics, nil
}
