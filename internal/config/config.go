// internal/config/config.go
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	httpserver "github.com/quotestream/collector/internal/http"
	"github.com/quotestream/collector/pkg/backoff"
	"github.com/quotestream/collector/pkg/invest"
	"github.com/quotestream/collector/pkg/kafka"
	"github.com/quotestream/collector/pkg/logger"
	"github.com/quotestream/collector/pkg/telemetry"
)

// InvestConfig — настройки апстрима плюс список инструментов для подписки.
type InvestConfig struct {
	invest.Config `mapstructure:",squash"`

	// Instruments — идентификаторы инструментов (pid), по сессии на каждый.
	Instruments []string `mapstructure:"instruments"`

	// Backoff — стратегия переподключения после терминального закрытия сессии.
	Backoff backoff.Config `mapstructure:"backoff"`
}

// KafkaConfig — настройки продьюсера плюс целевой топик.
type KafkaConfig struct {
	kafka.Config `mapstructure:",squash"`

	Topic string `mapstructure:"topic"`
}

// Config — корневая конфигурация сервиса.
type Config struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`

	Invest    InvestConfig      `mapstructure:"invest"`
	Kafka     KafkaConfig       `mapstructure:"kafka"`
	Telemetry telemetry.Config  `mapstructure:"telemetry"`
	Logging   logger.Config     `mapstructure:"logging"`
	HTTP      httpserver.Config `mapstructure:"http"`
}

// Load читает конфигурацию из YAML-файла и переменных окружения.
// Переменные окружения имеют приоритет: COLLECTOR_KAFKA_BROKERS и т.п.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToBoolHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("config: create decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "invest-quote-collector")
	v.SetDefault("service_version", "v1.0.0")

	v.SetDefault("invest.host", invest.DefaultHost)
	v.SetDefault("invest.handshake_timeout", "10s")
	v.SetDefault("invest.heartbeat_interval", "3200ms")
	v.SetDefault("invest.write_timeout", "5s")

	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.compression", "none")
	v.SetDefault("kafka.timeout", "5s")
	v.SetDefault("kafka.topic", "marketdata.snapshots")

	v.SetDefault("telemetry.insecure", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)

	v.SetDefault("http.addr", ":8080")
}

// stringToBoolHook разбирает true/false, иначе отдаёт исходные данные.
func stringToBoolHook(f, t reflect.Kind, data interface{}) (interface{}, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("config: service_name is required")
	}
	if len(c.Invest.Instruments) == 0 {
		return fmt.Errorf("config: invest.instruments must not be empty")
	}
	for _, id := range c.Invest.Instruments {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("config: invest.instruments contains empty id")
		}
	}
	c.Invest.ApplyDefaults()
	if err := c.Invest.Validate(); err != nil {
		return err
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must not be empty")
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka.topic is required")
	}
	return nil
}

// Print возвращает краткую строку для стартового лога (без секретов).
func (c *Config) Print() string {
	return fmt.Sprintf("service=%s version=%s host=%s instruments=%d brokers=%v topic=%s http=%s",
		c.ServiceName, c.ServiceVersion,
		c.Invest.Host, len(c.Invest.Instruments),
		c.Kafka.Brokers, c.Kafka.Topic, c.HTTP.Addr,
	)
}
