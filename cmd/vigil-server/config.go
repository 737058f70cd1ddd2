package main

import (
	"vigil-backend/internal/scrapers/github"
	configsqlite "vigil-backend/lib/configutil/sqlite"
)

type RescanConfig struct {
	Schedule       string `json:"schedule"`
	OlderThanHours int    `json:"older_than_hours"`
	Concurrency    int    `json:"concurrency"`
}

type Config struct {
	Port          int                 `json:"port"`
	PublicBaseUrl string              `json:"public_base_url"`
	Timezone      string              `json:"timezone"`
	Database      configsqlite.Struct `json:"database"`
	Scraper       github.Config       `json:"scraper"`
	Rescan        RescanConfig        `json:"rescan"`
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.Database.File == "" && c.Database.Url == "" {
		c.Database.File = "<dev_state>/vigil.db"
	}
	if c.Rescan.Schedule == "" {
		c.Rescan.Schedule = "0 */6 * * *"
	}
	if c.Rescan.OlderThanHours <= 0 {
		c.Rescan.OlderThanHours = 24
	}
	if c.Rescan.Concurrency <= 0 {
		c.Rescan.Concurrency = 4
	}
	return c
}
