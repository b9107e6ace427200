// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package postgres

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds the connection settings for a PostgreSQL store.
type Config struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// FromEnv builds a Config from POSTGRES_* environment variables.
// POSTGRES_PORT defaults to 5432; all other variables are required.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		Database: os.Getenv("POSTGRES_DB"),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required connection settings are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("postgres config: missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	return nil
}

// ConnString returns the PostgreSQL connection URL. Credentials are
// URL-escaped so passwords with reserved characters survive parsing.
func (c *Config) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.Database,
	}
	return u.String()
}
