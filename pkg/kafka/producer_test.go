// pkg/kafka/producer_test.go
package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/quotestream/collector/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// Проверяем applyDefaults и validate.
func TestConfigDefaultsAndValidate(t *testing.T) {
	cases := []struct {
		name     string
		input    Config
		wantErr  bool
		wantAcks string
		wantComp string
	}{
		{"empty", Config{}, true, "all", "none"},
		{"noBrokers", Config{Compression: "gzip"}, true, "all", "gzip"},
		{"ok", Config{Brokers: []string{"b1"}}, false, "all", "none"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := c.input
			cfg.applyDefaults()
			if got := cfg.RequiredAcks; got != c.wantAcks {
				t.Errorf("RequiredAcks = %q; want %q", got, c.wantAcks)
			}
			if got := cfg.Compression; got != c.wantComp {
				t.Errorf("Compression = %q; want %q", got, c.wantComp)
			}
			err := cfg.validate()
			if (err != nil) != c.wantErr {
				t.Errorf("validate() error = %v; wantErr=%v", err, c.wantErr)
			}
		})
	}
}

// Проверяем путь публикации через sarama mocks.
func TestPublish(t *testing.T) {
	mc := mocks.NewTestConfig()
	mc.Producer.Return.Successes = true

	t.Run("success", func(t *testing.T) {
		mp := mocks.NewSyncProducer(t, mc)
		mp.ExpectSendMessageAndSucceed()
		p := &kafkaProducer{prod: mp, log: testLogger(t)}
		if err := p.Publish(context.Background(), "topic", []byte("key"), []byte("value")); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if err := mp.Close(); err != nil {
			t.Errorf("mock close: %v", err)
		}
	})

	t.Run("brokerError", func(t *testing.T) {
		wantErr := errors.New("broker unavailable")
		mp := mocks.NewSyncProducer(t, mc)
		mp.ExpectSendMessageAndFail(wantErr)
		p := &kafkaProducer{prod: mp, log: testLogger(t)}
		if err := p.Publish(context.Background(), "topic", []byte("key"), []byte("value")); !errors.Is(err, wantErr) {
			t.Fatalf("Publish error = %v; want %v", err, wantErr)
		}
		if err := mp.Close(); err != nil {
			t.Errorf("mock close: %v", err)
		}
	})
}

// Проверяем buildSaramaConfig для acks.
func TestBuildSaramaConfig_RequiredAcks(t *testing.T) {
	cases := []struct {
		acks    string
		want    sarama.RequiredAcks
		wantErr bool
	}{
		{"all", sarama.WaitForAll, false},
		{"leader", sarama.WaitForLocal, false},
		{"none", sarama.NoResponse, false},
		{"ALL", sarama.WaitForAll, false},
		{"LeAdEr", sarama.WaitForLocal, false},
		{"invalid", 0, true},
	}
	for _, c := range cases {
		t.Run(c.acks, func(t *testing.T) {
			cfg := Config{RequiredAcks: c.acks, Compression: "none", Brokers: []string{"x"}, Timeout: time.Second}
			sc, err := buildSaramaConfig(cfg)
			if c.wantErr {
				if err == nil {
					t.Errorf("buildSaramaConfig(%q) expected error", c.acks)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sc.Producer.RequiredAcks != c.want {
				t.Errorf("RequiredAcks = %v; want %v", sc.Producer.RequiredAcks, c.want)
			}
		})
	}
}

// Проверяем buildSaramaConfig для компрессии.
func TestBuildSaramaConfig_Compression(t *testing.T) {
	cases := []struct {
		comp    string
		want    sarama.CompressionCodec
		wantErr bool
	}{
		{"none", sarama.CompressionNone, false},
		{"gzip", sarama.CompressionGZIP, false},
		{"snappy", sarama.CompressionSnappy, false},
		{"lz4", sarama.CompressionLZ4, false},
		{"zstd", sarama.CompressionZSTD, false},
		{"brotli", 0, true},
	}
	for _, c := range cases {
		t.Run(c.comp, func(t *testing.T) {
			cfg := Config{RequiredAcks: "all", Compression: c.comp, Brokers: []string{"x"}, Timeout: time.Second}
			sc, err := buildSaramaConfig(cfg)
			if c.wantErr {
				if err == nil {
					t.Errorf("buildSaramaConfig(%q) expected error", c.comp)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sc.Producer.Compression != c.want {
				t.Errorf("Compression = %v; want %v", sc.Producer.Compression, c.want)
			}
		})
	}
}
