package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// SiteConfig holds the site-wide settings that end up in every feed
type SiteConfig struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Url         string `toml:"url"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Hostname string `toml:"hostname"`
	Port     int    `toml:"port"`
}

// FeedConfig holds feed generation settings
type FeedConfig struct {
	PostsPerPage int `toml:"posts_per_page"`
}

// DatabaseConfig holds the content store location
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// Config represents the top-level configuration
type Config struct {
	Site     SiteConfig     `toml:"site"`
	Server   ServerConfig   `toml:"server"`
	Feed     FeedConfig     `toml:"feed"`
	Database DatabaseConfig `toml:"database"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Site.Url == "" {
		config.Site.Url = "http://localhost:3000"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Feed.PostsPerPage == 0 {
		config.Feed.PostsPerPage = 15
	}
	if config.Database.Path == "" {
		config.Database.Path = "content.db"
	}
}
