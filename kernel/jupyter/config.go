/*
 * config.go, part of goqdk.
 *
 * Copyright 2024 The goqdk authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package jupyter

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//Environment variables that override the configuration file.
const (
	EnvServerURL = "GOQDK_SERVER_URL"
	EnvToken     = "GOQDK_TOKEN"
	EnvKernel    = "GOQDK_KERNEL"
)

//Config tells the transport where the Jupyter server is, and optionally
//how to launch it.
type Config struct {
	ServerURL     string
	Token         string
	Kernel        string
	Origin        string   //Origin header for the websocket, the server URL if empty.
	Launch        []string //command line that starts the server, nothing is launched if empty.
	StartTimeout  time.Duration
	RetryInterval time.Duration
}

//DefaultConfig returns the configuration for an IQ# kernel on a local
//Jupyter server that is already running.
func DefaultConfig() Config {
	return Config{
		ServerURL:     "http://127.0.0.1:8888",
		Kernel:        "iqsharp",
		StartTimeout:  60 * time.Second,
		RetryInterval: 500 * time.Millisecond,
	}
}

//config file key mapping to Config.
type fileConfig struct {
	ServerURL     string   `toml:"server_url"`
	Token         string   `toml:"token"`
	Kernel        string   `toml:"kernel"`
	Origin        string   `toml:"origin"`
	Launch        []string `toml:"launch"`
	StartTimeout  string   `toml:"start_timeout"`
	RetryInterval string   `toml:"retry_interval"`
}

//LoadConfig reads a TOML configuration file. Keys not in the file keep
//their default values. Environment variables are then applied, and the
//result validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load kernel config: %w", err)
	}
	if meta.IsDefined("server_url") {
		cfg.ServerURL = strings.TrimSpace(raw.ServerURL)
	}
	if meta.IsDefined("token") {
		cfg.Token = strings.TrimSpace(raw.Token)
	}
	if meta.IsDefined("kernel") {
		cfg.Kernel = strings.TrimSpace(raw.Kernel)
	}
	if meta.IsDefined("origin") {
		cfg.Origin = strings.TrimSpace(raw.Origin)
	}
	if meta.IsDefined("launch") {
		cfg.Launch = raw.Launch
	}
	if meta.IsDefined("start_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StartTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse start_timeout: %w", err)
		}
		cfg.StartTimeout = d
	}
	if meta.IsDefined("retry_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RetryInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse retry_interval: %w", err)
		}
		cfg.RetryInterval = d
	}
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

//ApplyEnv overrides cfg with the GOQDK_* environment variables that are set.
func ApplyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKernel)); v != "" {
		cfg.Kernel = v
	}
}

//Validate checks that the configuration can be used.
func (cfg Config) Validate() error {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("kernel config: bad server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("kernel config: server_url must be http or https, not %q", cfg.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("kernel config: server_url has no host")
	}
	if strings.TrimSpace(cfg.Kernel) == "" {
		return fmt.Errorf("kernel config missing kernel")
	}
	if cfg.StartTimeout <= 0 {
		return fmt.Errorf("kernel config: start_timeout must be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("kernel config: retry_interval must be positive")
	}
	if len(cfg.Launch) > 0 && strings.TrimSpace(cfg.Launch[0]) == "" {
		return fmt.Errorf("kernel config: empty launch command")
	}
	return nil
}
