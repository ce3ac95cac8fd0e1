package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"stream-uploader/internal/model"
	"stream-uploader/internal/stream"
)

// EnvPrefix scopes every setting, e.g. UPLOADER_TOKEN.
const EnvPrefix = "UPLOADER"

const (
	DefaultVideoName    = "Test video"
	DefaultErrorsLog    = "errors.log"
	DefaultReportPrefix = "reports/"
)

type Config struct {
	Token     string
	AccountID string

	BaseURL   string
	VideoName string
	OnError   model.FailurePolicy
	MaxPolls  int // 0 polls until ready, however long that takes
	ErrorsLog string

	S3Endpoint   string
	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	ReportPrefix string

	TelegramToken  string
	TelegramChatID int64

	PushgatewayURL string
}

// ConfigError reports a missing or unparsable setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

// ReportsEnabled is true when run reports should be written to S3.
func (c Config) ReportsEnabled() bool { return c.S3Bucket != "" }

// TelegramEnabled is true when upload notifications should be sent.
func (c Config) TelegramEnabled() bool { return c.TelegramToken != "" && c.TelegramChatID != 0 }

func LoadConfig() (Config, error) {
	return LoadConfigFrom(os.Environ())
}

// LoadConfigFrom reads the configuration from KEY=VALUE pairs. Keys are
// matched case-insensitively; an all-uppercase key wins over other spellings.
func LoadConfigFrom(environ []string) (Config, error) {
	env := newEnvLookup(environ)

	cfg := Config{
		Token:     env.get("TOKEN"),
		AccountID: env.get("ACCOUNT_ID"),

		BaseURL:   firstNonEmpty(env.get("BASE_URL"), stream.DefaultBaseURL),
		VideoName: firstNonEmpty(env.get("VIDEO_NAME"), DefaultVideoName),
		ErrorsLog: firstNonEmpty(env.get("ERRORS_LOG"), DefaultErrorsLog),

		S3Endpoint:   env.get("S3_ENDPOINT"),
		S3Region:     env.get("S3_REGION"),
		S3Bucket:     env.get("S3_BUCKET"),
		S3AccessKey:  firstNonEmpty(env.get("S3_ACCESS_KEY"), env.get("S3_ACCESS_KEY_ID")),
		S3SecretKey:  firstNonEmpty(env.get("S3_SECRET_KEY"), env.get("S3_SECRET_ACCESS_KEY")),
		ReportPrefix: firstNonEmpty(env.get("REPORT_PREFIX"), DefaultReportPrefix),

		TelegramToken:  env.get("TELEGRAM_TOKEN"),
		PushgatewayURL: env.get("PUSHGATEWAY_URL"),
	}

	if cfg.Token == "" {
		return cfg, &ConfigError{Key: env.key("TOKEN"), Reason: "is required"}
	}
	if cfg.AccountID == "" {
		return cfg, &ConfigError{Key: env.key("ACCOUNT_ID"), Reason: "is required"}
	}

	policy, err := model.ParseFailurePolicy(env.get("ON_ERROR"))
	if err != nil {
		return cfg, &ConfigError{Key: env.key("ON_ERROR"), Reason: err.Error()}
	}
	cfg.OnError = policy

	if v := env.get("MAX_POLLS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, &ConfigError{Key: env.key("MAX_POLLS"), Reason: fmt.Sprintf("must be a non-negative integer, got %q", v)}
		}
		cfg.MaxPolls = n
	}

	if v := env.get("TELEGRAM_CHAT_ID"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, &ConfigError{Key: env.key("TELEGRAM_CHAT_ID"), Reason: fmt.Sprintf("must be an integer, got %q", v)}
		}
		cfg.TelegramChatID = n
	}

	if cfg.S3Bucket != "" && (cfg.S3Endpoint == "" || cfg.S3Region == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return cfg, &ConfigError{Key: env.key("S3_*"), Reason: "endpoint, region and keys are required when a bucket is set"}
	}
	return cfg, nil
}

// ErrorsLogPath resolves the errors log location before the full config is
// loaded, so that config failures can be logged too.
func ErrorsLogPath() string {
	return firstNonEmpty(newEnvLookup(os.Environ()).get("ERRORS_LOG"), DefaultErrorsLog)
}

type envLookup map[string]string

func newEnvLookup(environ []string) envLookup {
	env := make(envLookup, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		upper := strings.ToUpper(k)
		if _, seen := env[upper]; seen && k != upper {
			continue
		}
		env[upper] = v
	}
	return env
}

func (e envLookup) key(name string) string {
	return EnvPrefix + "_" + name
}

func (e envLookup) get(name string) string {
	return strings.TrimSpace(e[e.key(name)])
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
