package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GROWCERY_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout    time.Duration `koanf:"read_timeout"`
		WriteTimeout   time.Duration `koanf:"write_timeout"`
		IdleTimeout    time.Duration `koanf:"idle_timeout"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"http"`

	Storage struct {
		Driver string `koanf:"driver"` // mongo | memory
	} `koanf:"storage"`

	Mongo struct {
		URI            string        `koanf:"uri"`
		Database       string        `koanf:"database"`
		ConnectTimeout time.Duration `koanf:"connect_timeout"`
		Transactions   bool          `koanf:"transactions"`
	} `koanf:"mongo"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Rabbit struct {
		URL          string `koanf:"url"`
		Exchange     string `koanf:"exchange"`
		HistoryQueue string `koanf:"history_queue"`
		Prefetch     int    `koanf:"prefetch"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers          []string `koanf:"brokers"`
		GroupID          string   `koanf:"group_id"`
		TopicFulfillment string   `koanf:"topic_fulfillment"`
	} `koanf:"kafka"`

	Security struct {
		SigningMethod string        `koanf:"signing_method"`
		JWTSecret     string        `koanf:"jwt_secret"`
		RSAPubPEM     string        `koanf:"rsa_pub_pem"`
		RSAPriPEM     string        `koanf:"rsa_pri_pem"`
		Issuer        string        `koanf:"issuer"`
		Audience      string        `koanf:"audience"`
		TTL           time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Admin struct {
		Email     string `koanf:"email"`
		Password  string `koanf:"password"`
		FirstName string `koanf:"first_name"`
		LastName  string `koanf:"last_name"`
	} `koanf:"admin"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix GROWCERY_, nested with __)
	// e.g. GROWCERY_MONGO__URI, GROWCERY_SECURITY__JWT_SECRET
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Storage.Driver {
	case "", "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri required")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("mongo.database required")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver must be mongo or memory, got %q", c.Storage.Driver)
	}
	switch strings.ToUpper(c.Security.SigningMethod) {
	case "", "HS256":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret required")
		}
	case "RS256":
		if c.Security.RSAPubPEM == "" || c.Security.RSAPriPEM == "" {
			return fmt.Errorf("security.rsa_pub_pem and security.rsa_pri_pem required for RS256")
		}
	default:
		return fmt.Errorf("security.signing_method must be HS256 or RS256")
	}
	if len(c.Kafka.Brokers) > 0 && (c.Kafka.GroupID == "" || c.Kafka.TopicFulfillment == "") {
		return fmt.Errorf("kafka.group_id and kafka.topic_fulfillment required when kafka.brokers is set")
	}
	return nil
}

// UsesMemoryStore reports whether the in-process store was selected.
func (c Config) UsesMemoryStore() bool { return c.Storage.Driver == "memory" }
