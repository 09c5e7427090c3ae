package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"landcharges/assist/internal/domain"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Fixtures  FixturesConfig  `mapstructure:"fixtures"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Stub      StubConfig      `mapstructure:"stub"`
}

type EndpointsConfig struct {
	PublicAPI              string `mapstructure:"public_api"`
	AutomaticProcess       string `mapstructure:"automatic_process"`
	BankruptcyRegistration string `mapstructure:"bankruptcy_registration"`
	LandCharges            string `mapstructure:"land_charges"`
	CaseworkAPI            string `mapstructure:"casework_api"`
	LegacyDB               string `mapstructure:"legacy_db"`
	Frontend               string `mapstructure:"frontend"`
}

type HTTPConfig struct {
	Timeout int `mapstructure:"timeout"`
}

type FixturesConfig struct {
	ClearCommand string `mapstructure:"clear_command"`
	SeedCommand  string `mapstructure:"seed_command"`
	Strict       bool   `mapstructure:"strict"`
	Skip         bool   `mapstructure:"skip"`
}

type KafkaConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Brokers []string    `mapstructure:"brokers"`
	Topics  KafkaTopics `mapstructure:"topics"`
}

type KafkaTopics struct {
	Reports       string `mapstructure:"reports"`
	Logs          string `mapstructure:"logs"`
	Registrations string `mapstructure:"registrations"`
}

type StubConfig struct {
	Port string `mapstructure:"port"`
}

// endpointBinding ties a config key to the legacy environment variable the
// acceptance suite has always used for it. LAND_CHARGES_URL feeds two keys.
type endpointBinding struct {
	key      string
	name     string
	envKey   string
	fallback string
}

var endpointBindings = []endpointBinding{
	{key: "endpoints.public_api", name: "public-api", envKey: "PUBLIC_API_URL", fallback: "http://localhost:5001"},
	{key: "endpoints.automatic_process", name: "automatic-process", envKey: "AUTOMATIC_PROCESS_URL", fallback: "http://localhost:5002"},
	{key: "endpoints.bankruptcy_registration", name: "bankruptcy-registration", envKey: "LAND_CHARGES_URL", fallback: "http://localhost:5004"},
	{key: "endpoints.land_charges", name: "land-charges", envKey: "LAND_CHARGES_URL", fallback: "http://localhost:5004"},
	{key: "endpoints.casework_api", name: "casework-api", envKey: "CASEWORK_API_URL", fallback: "http://localhost:5006"},
	{key: "endpoints.legacy_db", name: "legacy-db", envKey: "LEGACY_ADAPTER_URL", fallback: "http://localhost:5007"},
	{key: "endpoints.frontend", name: "casework-frontend", envKey: "CASEWORK_FRONTEND_URL", fallback: "http://localhost:5010"},
}

// ConfigPathEnv names an explicit config file. When unset, config/assist.yaml
// is used if it exists.
const ConfigPathEnv = "ASSIST_CONFIG"

// Resolve returns the value of the environment variable key when it is set
// and non-empty, otherwise fallback. Load applies the same rule to every
// endpoint through viper.
func Resolve(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, b := range endpointBindings {
		if err := v.BindEnv(b.key, b.envKey); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.envKey, err)
		}
	}

	if path := Resolve(ConfigPathEnv, ""); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("assist")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")

	// Endpoint defaults
	for _, b := range endpointBindings {
		v.SetDefault(b.key, b.fallback)
	}

	v.SetDefault("http.timeout", 10)

	// Fixture reset defaults
	v.SetDefault("fixtures.clear_command", "clear-data")
	v.SetDefault("fixtures.seed_command", "ruby ../../../acceptance-tests/data/lc-lookups.rb")
	v.SetDefault("fixtures.strict", false)
	v.SetDefault("fixtures.skip", false)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topics.reports", "assist-reports")
	v.SetDefault("kafka.topics.logs", "assist-logs")
	v.SetDefault("kafka.topics.registrations", "new-registrations")

	v.SetDefault("stub.port", "5004")
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeout) * time.Second
}

// EndpointList returns every configured service endpoint in declaration order.
func (c *Config) EndpointList() []domain.Endpoint {
	values := map[string]string{
		"endpoints.public_api":              c.Endpoints.PublicAPI,
		"endpoints.automatic_process":       c.Endpoints.AutomaticProcess,
		"endpoints.bankruptcy_registration": c.Endpoints.BankruptcyRegistration,
		"endpoints.land_charges":            c.Endpoints.LandCharges,
		"endpoints.casework_api":            c.Endpoints.CaseworkAPI,
		"endpoints.legacy_db":               c.Endpoints.LegacyDB,
		"endpoints.frontend":                c.Endpoints.Frontend,
	}

	list := make([]domain.Endpoint, 0, len(endpointBindings))
	for _, b := range endpointBindings {
		list = append(list, domain.Endpoint{
			Name:   b.name,
			EnvKey: b.envKey,
			URL:    values[b.key],
		})
	}
	return list
}
