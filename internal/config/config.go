// Package config handles bfrestool configuration loading and management.
package config

import "time"

// Config holds all tool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Export  ExportConfig  `yaml:"export"`
	Server  ServerConfig  `yaml:"server"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ExportConfig holds settings shared by the json, obj and gltf commands.
type ExportConfig struct {
	OutDir     string `yaml:"out_dir"`     // empty writes to stdout
	Binary     bool   `yaml:"binary"`      // gltf as GLB
	IndentJSON bool   `yaml:"indent_json"` // pretty-print json output
}

// ServerConfig holds settings for the HTTP browser.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	DataDir      string        `yaml:"data_dir"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Export: ExportConfig{
			OutDir:     "",
			Binary:     false,
			IndentJSON: true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8000",
			DataDir:      ".",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}
