package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetRaw     = "raw"
	PresetHiRes   = "hires"
	PresetLowRes  = "lowres"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetRaw:     RawConfig(),
		PresetHiRes:   HiResConfig(),
		PresetLowRes:  LowResConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetRaw,
		PresetHiRes,
		PresetLowRes,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// HiResConfig returns a 1080p marker-mode configuration.
// More detail for the preview at higher encode cost.
func HiResConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// LowResConfig returns a VGA marker-mode configuration.
// Use when the network link to the viewer is poor.
func LowResConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}
