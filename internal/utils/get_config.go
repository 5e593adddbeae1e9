package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Database configuration
	DBDriver   string `yaml:"DB_DRIVER"` // "sqlite" or "postgres"
	DBPath     string `yaml:"DB_PATH"`
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`

	// Application
	AppPort     string `yaml:"APP_PORT"`
	AppTimezone string `yaml:"APP_TIMEZONE"`
	LogLevel    string `yaml:"LOG_LEVEL"`
	LogFormat   string `yaml:"LOG_FORMAT"`
	ReceiptDir  string `yaml:"RECEIPT_DIR"`
	ExpiryCheck string `yaml:"EXPIRY_CHECK_INTERVAL"`

	// Classifier
	RulesFile        string `yaml:"RULES_FILE"`
	GoogleAPIKey     string `yaml:"GOOGLE_API_KEY"`
	GoogleEngineID   string `yaml:"GOOGLE_SEARCH_ENGINE_ID"`
	LookupTimeout    string `yaml:"LOOKUP_TIMEOUT"`
	LookupMaxRetries string `yaml:"LOOKUP_MAX_RETRIES"`

	// JWT
	JWTSecret string `yaml:"JWT_SECRET"`

	// Mailing configuration
	AppURL           string `yaml:"APP_URL"`
	SMTPHost         string `yaml:"SMTP_HOST"`
	SMTPPort         string `yaml:"SMTP_PORT"`
	SMTPSenderName   string `yaml:"SMTP_SENDER_NAME"`
	SMTPAuthEmail    string `yaml:"SMTP_AUTH_EMAIL"`
	SMTPAuthPassword string `yaml:"SMTP_AUTH_PASSWORD"`
	NotifyEmail      string `yaml:"NOTIFY_EMAIL"`

	// AWS S3 configuration
	AWSS3Bucket  string `yaml:"AWS_S3_BUCKET"`
	AWSS3Region  string `yaml:"AWS_S3_REGION"`
	AWSAccessKey string `yaml:"AWS_ACCESS_KEY"`
	AWSSecretKey string `yaml:"AWS_SECRET_KEY"`
}

var k = newKoanf()

func defaultConfig() Config {
	return Config{
		DBDriver:         "sqlite",
		DBPath:           "pantry.db",
		AppPort:          "8080",
		AppTimezone:      "Asia/Tokyo",
		LogLevel:         "info",
		LogFormat:        "console",
		ReceiptDir:       "receipts",
		ExpiryCheck:      "1h",
		LookupTimeout:    "10s",
		LookupMaxRetries: "1",
	}
}

// newKoanf returns a koanf instance holding only the defaults. Every Config
// key is present, which is what limits the environment layer to known keys.
func newKoanf() *koanf.Koanf {
	kf := koanf.New(".")
	defaults, err := yaml.Marshal(defaultConfig())
	if err != nil {
		panic(fmt.Sprintf("encode default config: %v", err))
	}
	if err := kf.Load(rawbytes.Provider(defaults), kyaml.Parser()); err != nil {
		panic(fmt.Sprintf("load default config: %v", err))
	}
	return kf
}

// LoadConfig layers defaults, config.yaml (or the file named by
// PANTRY_CONFIG) and environment variables named like the config keys. A
// missing file is not an error.
func LoadConfig() {
	kf := newKoanf()

	path := os.Getenv("PANTRY_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := kf.Load(rawbytes.Provider(file), kyaml.Parser()); err != nil {
			log.Printf("Error parsing YAML file: %s\n", err)
		}
	case !os.IsNotExist(err):
		log.Printf("Error reading YAML file: %s\n", err)
	}

	if err := kf.Load(env.Provider("", ".", func(key string) string {
		if !kf.Exists(key) {
			return ""
		}
		return key
	}), nil); err != nil {
		log.Printf("Error loading environment: %s\n", err)
	}

	k = kf
}

// GetConfig returns the value of a config key, or "" for unknown keys.
func GetConfig(key string) string {
	return k.String(key)
}

// GetConfigInt returns def when the key is unset or not a number.
func GetConfigInt(key string, def int) int {
	n, err := strconv.Atoi(GetConfig(key))
	if err != nil {
		return def
	}
	return n
}

func GetConfigDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(GetConfig(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetLocation returns the time zone receipts are dated in.
func GetLocation() *time.Location {
	loc, err := time.LoadLocation(GetConfig("APP_TIMEZONE"))
	if err != nil {
		return time.UTC
	}
	return loc
}
