package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager holds the camera configuration and the running source, and
// applies config updates by restarting the pipeline.
type Manager struct {
	mu     sync.Mutex
	config Config
	buf    *Buffer
	source *Source

	// Callback after a config change has been applied (for status pushes)
	OnConfigChange func(cfg Config)
}

// NewManager creates a camera manager with the given config and a fresh
// frame buffer.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
		buf:    NewBuffer(),
	}
}

// Buffer returns the frame buffer shared by all sources the manager runs.
func (m *Manager) Buffer() *Buffer {
	return m.buf
}

// Start launches a source with the current configuration.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

func (m *Manager) startLocked() error {
	if m.source != nil && m.source.Running() {
		return ErrAlreadyRunning
	}
	if errs := m.config.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %v", errs)
	}
	m.source = NewSource(m.config, m.buf)
	return m.source.Start()
}

// Stop terminates the running source, if any.
func (m *Manager) Stop() error {
	m.mu.Lock()
	source := m.source
	m.mu.Unlock()
	if source == nil {
		return nil
	}
	return source.Stop()
}

// Running reports whether a source is currently ingesting.
func (m *Manager) Running() bool {
	m.mu.Lock()
	source := m.source
	m.mu.Unlock()
	return source != nil && source.Running()
}

// Stats returns the current source's ingest counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	source := m.source
	m.mu.Unlock()
	if source == nil {
		return Stats{}
	}
	return source.Stats()
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// SetConfig applies a new configuration. A running pipeline is restarted
// so the change takes effect.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: validation failed: %v", errs)
	}

	m.mu.Lock()
	wasRunning := m.source != nil && m.source.Running()
	if wasRunning {
		source := m.source
		m.mu.Unlock()
		if err := source.Stop(); err != nil {
			return err
		}
		m.mu.Lock()
	}
	m.config = cfg
	callback := m.OnConfigChange

	var err error
	if wasRunning {
		err = m.startLocked()
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if callback != nil {
		callback(cfg)
	}
	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, plus "preset" to start from a
// named preset before applying overrides.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("camera: unknown preset: %s", presetName)
		}
		cfg = *preset
		delete(params, "preset")
	}

	for key, value := range params {
		switch key {
		case "sensor_id":
			if v, ok := toInt(value); ok {
				cfg.SensorID = v
			}
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "framerate":
			if v, ok := toInt(value); ok {
				cfg.Framerate = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "mode":
			if v, ok := value.(string); ok {
				cfg.Mode = Mode(v)
			}
		case "output_width":
			if v, ok := toInt(value); ok {
				cfg.OutputWidth = v
			}
		case "output_height":
			if v, ok := toInt(value); ok {
				cfg.OutputHeight = v
			}
		case "min_frame_bytes":
			if v, ok := toInt(value); ok {
				cfg.MinFrameBytes = v
			}
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

// toInt converts loosely-typed JSON numbers to int.
func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
