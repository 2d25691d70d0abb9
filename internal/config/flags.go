package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile    = flag.String("log-file", "", "Write logs to this file")
	flagMaxEntries = flag.Int("max-entries", 0, "Spatial index node capacity")
	flagCompress   = flag.Bool("compress", false, "Compress written snapshots")
	flagNoCompress = flag.Bool("no-compress", false, "Write uncompressed snapshots")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagMaxEntries > 0 {
		cfg.Index.MaxEntries = *flagMaxEntries
	}
	if *flagCompress {
		cfg.Snapshot.Compress = true
	}
	if *flagNoCompress {
		cfg.Snapshot.Compress = false
	}
}
