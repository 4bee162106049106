// Copyright (C) 2024 The Phimdb Authors.
//
// This file is part of Phimdb.
//
// Phimdb is free software: you can redistribute it and/or modify it under the
// terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Phimdb is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Phimdb.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/phimdb/phimdb"
)

type DatabaseConfig struct {
	Driver  string
	Source  string
	LogMode bool
}

type ClientConfig struct {
	UseCache  bool
	CacheDir  string
	MaxAge    time.Duration
	Timeout   time.Duration
	UserAgent string
}

type CatalogConfig struct {
	DB DatabaseConfig
}

type CrawlConfig struct {
	BaseURL       string
	MaxPage       int
	SyncInterval  time.Duration
	PruneEpisodes bool
}

type SearchConfig struct {
	BleveDir   string
	IndexLimit int
}

type ServerConfig struct {
	Listen string
}

type TelegramConfig struct {
	Token       string
	WebhookPath string
	PageLimit   int
}

type Config struct {
	DataDir  string
	Catalog  CatalogConfig
	Crawl    CrawlConfig
	Client   ClientConfig
	Search   SearchConfig
	Server   ServerConfig
	Telegram TelegramConfig
}

func configDefaults(v *viper.Viper) {
	v.SetDefault("DataDir", ".")

	v.SetDefault("Catalog.DB.Driver", "sqlite3")
	v.SetDefault("Catalog.DB.Source", "catalog.db")
	v.SetDefault("Catalog.DB.LogMode", "false")

	v.SetDefault("Crawl.BaseURL", "https://phimapi.com")
	v.SetDefault("Crawl.MaxPage", "15")
	v.SetDefault("Crawl.SyncInterval", "1h")
	v.SetDefault("Crawl.PruneEpisodes", "false")

	v.SetDefault("Client.UseCache", "false")
	v.SetDefault("Client.CacheDir", ".httpcache")
	v.SetDefault("Client.MaxAge", "1h")
	v.SetDefault("Client.Timeout", "30s")
	v.SetDefault("Client.UserAgent", userAgent())

	v.SetDefault("Search.BleveDir", ".")
	v.SetDefault("Search.IndexLimit", "1000")

	v.SetDefault("Server.Listen", ":3000")

	v.SetDefault("Telegram.Token", "")
	v.SetDefault("Telegram.WebhookPath", "/hook/telegram")
	v.SetDefault("Telegram.PageLimit", "20")
}

func userAgent() string {
	return phimdb.AppName + "/" + phimdb.Version + " ( " + phimdb.Contact + " )"
}

func readConfig(v *viper.Viper) (*Config, error) {
	var config Config
	var pathRegexp = regexp.MustCompile(`(file|dir|source)$`)
	err := v.ReadInConfig()
	dir := filepath.Dir(v.ConfigFileUsed())
	for _, k := range v.AllKeys() {
		if pathRegexp.MatchString(k) {
			val := v.Get(k)
			if strings.HasPrefix(val.(string), "/") == false {
				val = fmt.Sprintf("%s/%s", dir, val.(string))
				v.Set(k, val)
			}
		}
	}
	if err == nil {
		err = v.Unmarshal(&config)
	}
	return &config, err
}

// TestConfig builds a config rooted at dir, intended for tests.
func TestConfig(dir string) (*Config, error) {
	v := viper.New()
	configDefaults(v)
	v.SetDefault("DataDir", dir)
	v.Set("Catalog.DB.Source", filepath.Join(dir, "catalog.db"))
	v.Set("Search.BleveDir", dir)
	var config Config
	err := v.Unmarshal(&config)
	return &config, err
}

var configFile, configPath, configName string

func SetConfigFile(path string) {
	configFile = path
}

func AddConfigPath(path string) {
	configPath = path
}

func SetConfigName(name string) {
	configName = name
}

func GetConfig() (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	if configName != "" {
		v.SetConfigName(configName)
	}
	configDefaults(v)
	return readConfig(v)
}

func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	configDefaults(v)
	return readConfig(v)
}
