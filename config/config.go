package config

import (
	"time"
)

type Config struct {
	Info     *Info     `yaml:"info"`
	Logger   *Logger   `yaml:"logger"`
	NBI      *NBI      `yaml:"nbi"`
	Database *Database `yaml:"database"`
	Poller   *Poller   `yaml:"poller"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type Logger struct {
	Level           string `yaml:"level,omitempty"`
	ReportCaller    bool   `yaml:"reportCaller,omitempty"`
	File            string `yaml:"file,omitempty"`
	RotationCount   int    `yaml:"rotationCount,omitempty"`
	RotationMaxAge  int    `yaml:"rotationMaxAge,omitempty"`
	RotationMaxSize int    `yaml:"rotationMaxSize,omitempty"`
}

type NBI struct {
	Scheme       string        `yaml:"scheme"`
	BindingIPv4  string        `yaml:"bindingIPv4"`
	BindingIPv6  string        `yaml:"bindingIPv6"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	TLS          *TLS          `yaml:"tls,omitempty"`
}

type TLS struct {
	Cert string `yaml:"cert,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

type Database struct {
	URL  string  `yaml:"url"`
	Pool *DBPool `yaml:"pool,omitempty"`
}

type DBPool struct {
	MaxIdleConns    int           `yaml:"maxIdleConns,omitempty"`
	MaxOpenConns    int           `yaml:"maxOpenConns,omitempty"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime,omitempty"`
	ConnMaxIdleTime time.Duration `yaml:"connMaxIdleTime,omitempty"`
}

// Poller controls how routers are contacted during a reconciliation run.
type Poller struct {
	// Timeout bounds a single router request so a hung device cannot
	// stall the rest of the run.
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency is the number of routers polled in parallel.
	Concurrency int `yaml:"concurrency"`
	// InsecureSkipVerify disables TLS certificate checks. Field routers
	// almost always present self-signed certificates.
	InsecureSkipVerify bool `yaml:"insecureSkipVerify,omitempty"`
}
