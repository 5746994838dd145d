package settings

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"wordflash/internal/domain"
	"wordflash/internal/events"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// MinFrequency is the shortest accepted card show frequency
const MinFrequency = 10 * time.Second

// file mirrors settings.yaml. Pointers tell absent keys from false.
type file struct {
	CardShowFrequency  string `yaml:"card_show_frequency,omitempty"`
	ReverseTranslation *bool  `yaml:"reverse_translation,omitempty"`
	RandomTranslation  *bool  `yaml:"random_translation,omitempty"`
	Active             *bool  `yaml:"active,omitempty"`
}

// Parse decodes YAML settings, filling absent keys with defaults
func Parse(data []byte) (domain.Settings, error) {
	cfg := domain.DefaultSettings()

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("failed to parse settings: %w", err)
	}

	if f.CardShowFrequency != "" {
		d, err := time.ParseDuration(f.CardShowFrequency)
		if err != nil {
			return cfg, fmt.Errorf("invalid card_show_frequency: %w", err)
		}
		if d < MinFrequency {
			return cfg, fmt.Errorf("card_show_frequency must be at least %s", MinFrequency)
		}
		cfg.CardShowFrequency = d
	}
	if f.ReverseTranslation != nil {
		cfg.ReverseTranslation = *f.ReverseTranslation
	}
	if f.RandomTranslation != nil {
		cfg.RandomTranslation = *f.RandomTranslation
	}
	if f.Active != nil {
		cfg.Active = *f.Active
	}

	return cfg, nil
}

// Marshal encodes settings as YAML
func Marshal(cfg domain.Settings) ([]byte, error) {
	return yaml.Marshal(file{
		CardShowFrequency:  cfg.CardShowFrequency.String(),
		ReverseTranslation: &cfg.ReverseTranslation,
		RandomTranslation:  &cfg.RandomTranslation,
		Active:             &cfg.Active,
	})
}

// Store holds the current settings backed by a YAML file.
// It implements repository.SettingsRepository.
type Store struct {
	path   string
	bus    *events.Bus
	logger *zap.Logger

	mu      sync.RWMutex
	current domain.Settings
}

// NewStore creates a store holding the default settings
func NewStore(path string, bus *events.Bus, logger *zap.Logger) *Store {
	return &Store{
		path:    path,
		bus:     bus,
		logger:  logger,
		current: domain.DefaultSettings(),
	}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Settings returns the current settings
func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Load reads the backing file. A missing file keeps the current settings.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Settings file not found, using defaults", zap.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return err
	}
	s.Apply(cfg)
	return nil
}

// Apply replaces the settings and publishes what changed
func (s *Store) Apply(next domain.Settings) {
	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if prev == next {
		return
	}

	s.logger.Info("Settings updated",
		zap.Duration("card_show_frequency", next.CardShowFrequency),
		zap.Bool("reverse_translation", next.ReverseTranslation),
		zap.Bool("random_translation", next.RandomTranslation),
		zap.Bool("active", next.Active),
	)

	if s.bus == nil {
		return
	}
	if prev.CardShowFrequency != next.CardShowFrequency {
		s.bus.Publish(events.FrequencyChanged{Old: prev.CardShowFrequency, New: next.CardShowFrequency})
	}
	if prev.Active != next.Active {
		s.bus.Publish(events.ActiveChanged{Active: next.Active})
	}
}

// Update applies fn to a copy of the settings, then applies and saves the result
func (s *Store) Update(fn func(*domain.Settings) error) (domain.Settings, error) {
	next := s.Settings()
	if err := fn(&next); err != nil {
		return s.Settings(), err
	}
	if next.CardShowFrequency < MinFrequency {
		return s.Settings(), fmt.Errorf("card_show_frequency must be at least %s", MinFrequency)
	}

	s.Apply(next)
	if err := s.Save(); err != nil {
		return next, err
	}
	return next, nil
}

// Save writes the current settings to the backing file
func (s *Store) Save() error {
	data, err := Marshal(s.Settings())
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
