package generator

import "time"

// Config drives the synthetic corpus generator.
type Config struct {
	NumMessages        int
	NumContacts        int
	BrokenChance       float64
	MissingDateChance  float64
	MaskedSenderChance float64
	Start              time.Time
	Seed               int64
}

// DefaultConfig returns settings that resemble a few months of a real export.
func DefaultConfig() Config {
	return Config{
		NumMessages:        1500,
		NumContacts:        60,
		BrokenChance:       0.02,
		MissingDateChance:  0.05,
		MaskedSenderChance: 0.6,
		Start:              time.Date(2024, time.May, 10, 8, 0, 0, 0, time.UTC),
		Seed:               42,
	}
}
