package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagScene      = flag.String("scene", "", "Path to scene file")
	flagVisibility = flag.String("visibility", "", "Visibility algorithm: exhaustive, fast or very_fast")
	flagRidges     = flag.Bool("ridges", false, "Extract ridges and valleys")
	flagSuggestive = flag.Bool("suggestive", false, "Extract suggestive contours")
	flagSaveConfig = flag.String("save-config", "", "Write the effective config to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ScenePath returns the scene path given with --scene, or the first
// positional argument.
func ScenePath() string {
	if *flagScene != "" {
		return *flagScene
	}
	return flag.Arg(0)
}

// SaveConfigPath returns the path given with --save-config.
func SaveConfigPath() string {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagVisibility != "" {
		cfg.ViewMap.VisibilityAlgorithm = *flagVisibility
	}
	if *flagRidges {
		cfg.ViewMap.EnableRidgesValleys = true
	}
	if *flagSuggestive {
		cfg.ViewMap.EnableSuggestiveContours = true
	}
}
