package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ponytojas/go-tempcheck/internal/format"
)

// EnvPrefix is prepended to every environment override, e.g. TEMPCHECK_SENSOR_COMMAND.
const EnvPrefix = "TEMPCHECK"

// Config holds all configuration for the application
type Config struct {
	Format      string            `mapstructure:"format"`
	Log         bool              `mapstructure:"log"`
	LogFile     string            `mapstructure:"log_file"`
	Sensor      SensorConfig      `mapstructure:"sensor"`
	Sinks       SinksConfig       `mapstructure:"sinks"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Timescale   TimescaleConfig   `mapstructure:"timescale"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Pushgateway PushgatewayConfig `mapstructure:"pushgateway"`
}

// SensorConfig describes the external sensor-reporting executable
type SensorConfig struct {
	Command     string        `mapstructure:"command"`
	Args        []string      `mapstructure:"args"`
	Label       string        `mapstructure:"label"`
	InstallHint string        `mapstructure:"install_hint"`
	Timeout     time.Duration `mapstructure:"timeout"` // 0 waits forever
}

// SinksConfig holds settings shared by every reading sink
type SinksConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// MQTTConfig holds MQTT connection configuration
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// TimescaleConfig holds Timescale specific configuration
type TimescaleConfig struct {
	TableName string `mapstructure:"table_name"`
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// PushgatewayConfig holds Prometheus Pushgateway configuration
type PushgatewayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Job     string `mapstructure:"job"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"format":   "format",
	"log":      "log",
	"log-file": "log_file",
}

// LoadConfig loads configuration from defaults, an optional config file,
// environment variables and command line flags, in increasing precedence.
// An empty file searches the working directory for tempcheck.yaml and
// tolerates its absence; an explicit file must exist.
func LoadConfig(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("tempcheck")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map all configuration keys to environment variables
	// Example: sensor.command -> TEMPCHECK_SENSOR_COMMAND
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("format", d.Format)
	v.SetDefault("log", d.Log)
	v.SetDefault("log_file", d.LogFile)

	v.SetDefault("sensor.command", d.Sensor.Command)
	v.SetDefault("sensor.args", d.Sensor.Args)
	v.SetDefault("sensor.label", d.Sensor.Label)
	v.SetDefault("sensor.install_hint", d.Sensor.InstallHint)
	v.SetDefault("sensor.timeout", d.Sensor.Timeout)

	v.SetDefault("sinks.timeout", d.Sinks.Timeout)

	v.SetDefault("mqtt.enabled", d.MQTT.Enabled)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.port", d.MQTT.Port)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("mqtt.username", d.MQTT.Username)
	v.SetDefault("mqtt.password", d.MQTT.Password)

	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.dbname", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)

	v.SetDefault("timescale.table_name", d.Timescale.TableName)

	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.topic", d.Kafka.Topic)

	v.SetDefault("pushgateway.enabled", d.Pushgateway.Enabled)
	v.SetDefault("pushgateway.url", d.Pushgateway.URL)
	v.SetDefault("pushgateway.job", d.Pushgateway.Job)
}

// bindFlags binds only the flags the caller registered, so tests can pass a
// partial flag set.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if _, err := format.Parse(cfg.Format); err != nil {
		return err
	}
	if cfg.Sensor.Command == "" {
		return errors.New("sensor.command must not be empty")
	}
	if cfg.Sensor.Label == "" {
		return errors.New("sensor.label must not be empty")
	}
	if cfg.Sensor.Timeout < 0 {
		return fmt.Errorf("sensor.timeout must not be negative, got %s", cfg.Sensor.Timeout)
	}
	if cfg.LogFile == "" {
		return errors.New("log_file must not be empty")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers must list at least one broker when kafka is enabled")
	}
	if cfg.Pushgateway.Enabled && cfg.Pushgateway.URL == "" {
		return errors.New("pushgateway.url must be set when pushgateway is enabled")
	}
	return nil
}

// GetDefaultConfig returns default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Format:  string(format.Plain),
		Log:     false,
		LogFile: "temp_check.log",
		Sensor: SensorConfig{
			Command:     "istats",
			Args:        []string{"cpu", "temperature"},
			Label:       "CPU temperature",
			InstallHint: "Please install iStats for this script to work. Command: 'sudo gem install iStats'.",
		},
		Sinks: SinksConfig{
			Timeout: 5 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost",
			Port:     1883,
			ClientID: "tempcheck",
			Topic:    "sensor/cpu/temperature",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			DBName:   "iot_data",
			SSLMode:  "disable",
		},
		Timescale: TimescaleConfig{
			TableName: "cpu_temperature",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "cpu-temperature",
		},
		Pushgateway: PushgatewayConfig{
			URL: "http://localhost:9091",
			Job: "tempcheck",
		},
	}
}

// AnySinkEnabled reports whether a reading has anywhere to go besides stdout.
func (c *Config) AnySinkEnabled() bool {
	return c.MQTT.Enabled || c.Database.Enabled || c.Kafka.Enabled || c.Pushgateway.Enabled
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetMQTTBrokerURL returns the MQTT broker URL
func (c *Config) GetMQTTBrokerURL() string {
	brokerURL := c.MQTT.Broker

	// If the URL already has a protocol, use it as is
	for _, scheme := range []string{"tcp://", "ssl://", "ws://", "wss://"} {
		if strings.HasPrefix(brokerURL, scheme) {
			if !strings.Contains(brokerURL[len(scheme):], ":") {
				brokerURL = fmt.Sprintf("%s:%d", brokerURL, c.MQTT.Port)
			}
			return brokerURL
		}
	}

	// Handle http:// and https:// by converting to mqtt protocols
	if host, ok := strings.CutPrefix(brokerURL, "http://"); ok {
		return "tcp://" + c.withPort(host)
	}
	if host, ok := strings.CutPrefix(brokerURL, "https://"); ok {
		return "ssl://" + c.withPort(host)
	}

	return fmt.Sprintf("tcp://%s:%d", brokerURL, c.MQTT.Port)
}

func (c *Config) withPort(host string) string {
	if strings.Contains(host, ":") {
		return host
	}
	return fmt.Sprintf("%s:%d", host, c.MQTT.Port)
}
