package domain

import "time"

// Settings are the user-tunable learning settings
type Settings struct {
	CardShowFrequency  time.Duration
	ReverseTranslation bool
	RandomTranslation  bool
	Active             bool
}

// DefaultSettings returns settings used when no settings file exists
func DefaultSettings() Settings {
	return Settings{
		CardShowFrequency:  10 * time.Minute,
		ReverseTranslation: true,
		RandomTranslation:  true,
		Active:             true,
	}
}
