package config

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	once     sync.Once
	instance *Config
)

// ComponentConfig содержит базовые сетевые настройки для запуска сервиса
type ComponentConfig struct {
	Protocol string `yaml:"protocol"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Debug    bool   `yaml:"debug"`
}

// ChubConfig описывает удалённый репозиторий персонажей
type ChubConfig struct {
	SearchURL      string `yaml:"search_url"`
	AvatarTemplate string `yaml:"avatar_template"` // %s = percent-encoded fullPath
	TimeoutSec     int    `yaml:"timeout_sec"`
	RatePerSecond  int    `yaml:"rate_per_second"`
	RateBurst      int    `yaml:"rate_burst"`
	Debug          bool   `yaml:"debug"`
}

// HostConfig points at the chat host application we import into.
type HostConfig struct {
	BaseURL    string `yaml:"base_url"`
	Token      string `yaml:"token"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SettingsConfig holds the local settings database location.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// CLIConfig настройки для CLI (не сервис)
type CLIConfig struct {
	Debug       bool   `yaml:"debug"`
	HistoryFile string `yaml:"history_file"`
}

// MetricsConfig настройки для экспортера метрик
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// Config корень дерева конфигурации, строго соответствующий chublink.yaml
type Config struct {
	Chub       ChubConfig      `yaml:"chub"`
	Host       HostConfig      `yaml:"host"`
	WebAdapter ComponentConfig `yaml:"web_adapter"`
	Settings   SettingsConfig  `yaml:"settings"`
	CLI        CLIConfig       `yaml:"cli"`
	Metrics    MetricsConfig   `yaml:"metrics"`
}

// Get возвращает инициализированный объект конфигурации (Singleton)
func Get() *Config {
	once.Do(func() {
		path := os.Getenv("CHUBLINK_CONFIG")
		if path == "" {
			path = "chublink.yaml"
		}

		instance = defaults()
		f, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Fatalf("[CONFIG ERROR] Could not read %s: %v", path, err)
			}
			return
		}
		if err := yaml.Unmarshal(f, instance); err != nil {
			log.Fatalf("[CONFIG ERROR] Failed to parse YAML: %v", err)
		}
		instance.fill()
	})
	return instance
}

func defaults() *Config {
	return &Config{
		Chub: ChubConfig{
			SearchURL:      "https://gateway.chub.ai/search",
			AvatarTemplate: "https://avatars.charhub.io/avatars/%s/avatar.webp",
			TimeoutSec:     30,
			RatePerSecond:  5,
			RateBurst:      10,
		},
		Host: HostConfig{
			BaseURL:    "http://localhost:8000",
			TimeoutSec: 60,
		},
		WebAdapter: ComponentConfig{Protocol: "http", Host: "localhost", Port: 8089},
		Settings:   SettingsConfig{Path: "chublink.db"},
		CLI:        CLIConfig{HistoryFile: ".chublink_history"},
		Metrics:    MetricsConfig{Port: 9109},
	}
}

// fill добивает нулевые поля значениями по умолчанию после разбора YAML
func (c *Config) fill() {
	d := defaults()
	if c.Chub.SearchURL == "" {
		c.Chub.SearchURL = d.Chub.SearchURL
	}
	if c.Chub.AvatarTemplate == "" {
		c.Chub.AvatarTemplate = d.Chub.AvatarTemplate
	}
	if c.Chub.TimeoutSec == 0 {
		c.Chub.TimeoutSec = d.Chub.TimeoutSec
	}
	if c.Chub.RatePerSecond == 0 {
		c.Chub.RatePerSecond = d.Chub.RatePerSecond
	}
	if c.Chub.RateBurst == 0 {
		c.Chub.RateBurst = d.Chub.RateBurst
	}
	if c.Host.BaseURL == "" {
		c.Host.BaseURL = d.Host.BaseURL
	}
	if c.Host.TimeoutSec == 0 {
		c.Host.TimeoutSec = d.Host.TimeoutSec
	}
	if c.WebAdapter.Port == 0 {
		c.WebAdapter = d.WebAdapter
	}
	if c.Settings.Path == "" {
		c.Settings.Path = d.Settings.Path
	}
	if c.CLI.HistoryFile == "" {
		c.CLI.HistoryFile = d.CLI.HistoryFile
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = d.Metrics.Port
	}
}

// Address возвращает строку host:port (удобно для listen)
func (c ComponentConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FullURL возвращает строку protocol://host:port (удобно для HTTP/URL)
func (c ComponentConfig) FullURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
}
