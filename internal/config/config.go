// Package config предоставялет структуры и функцию для парсинга и загрузки конфига клиента
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек клиента
type Config struct {
	Env     string `yaml:"env" env-default:"local"`
	API     `yaml:"api"`
	Storage `yaml:"storage"`
	Limits  `yaml:"limits"`
}

// API структура для настройки подключения к бэкенду
type API struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Storage структура для настройки локального хранилища сессии
type Storage struct {
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:".portal/session.json"`
}

// Limits структура для настройки клиентского ограничения исходящих запросов
type Limits struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env-default:"5"`
	Burst             int     `yaml:"burst" env-default:"10"`
}

// MustLoad функция для загрузки конфига, путь берётся из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"API:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"Storage:\n"+
			"  Path: %s\n"+
			"Limits:\n"+
			"  RequestsPerSecond: %g\n"+
			"  Burst: %d\n",
		c.Env,
		c.BaseURL,
		c.Timeout,
		c.Path,
		c.RequestsPerSecond,
		c.Burst,
	)
}
