package app

import (
	"os"
	"strconv"
	"strings"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr           string
	MetricsAddr        string
	PostgresDSN        string
	KafkaBrokers       string
	ConsumerGroup      string
	PaymentSuccessRate float64
}

// ReadConfig дополняет defaults значениями из переменных окружения.
// Пустой OFS_POSTGRES_DSN означает in-memory storage, пустой
// OFS_KAFKA_BROKERS — запуск без брокера (degraded-режим для разработки).
func ReadConfig(defaults Config) Config {
	cfg := defaults
	if v := os.Getenv("OFS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("OFS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("OFS_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("OFS_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("OFS_CONSUMER_GROUP"); v != "" {
		cfg.ConsumerGroup = v
	}
	if v := os.Getenv("OFS_PAYMENT_SUCCESS_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 && rate <= 1 {
			cfg.PaymentSuccessRate = rate
		}
	}
	return cfg
}

// BrokerList разбивает список брокеров из конфигурации.
func (c Config) BrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}
