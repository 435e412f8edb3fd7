package config

import "flag"

// Flags are the command-line overrides shared by every bfrestool command.
type Flags struct {
	Config *string
	Debug  *bool
	Addr   *string
	Out    *string
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config: fs.String("config", "", "Path to config file"),
		Debug:  fs.Bool("debug", false, "Enable debug logging"),
		Addr:   fs.String("addr", "", "HTTP listen address"),
		Out:    fs.String("out", "", "Output directory"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.Addr != "" {
		cfg.Server.Addr = *f.Addr
	}
	if *f.Out != "" {
		cfg.Export.OutDir = *f.Out
	}
}
