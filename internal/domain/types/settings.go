package types

import "time"

// DefaultConnectTimeout is the per-address connect timeout in milliseconds.
const DefaultConnectTimeout = 500

// Settings are the user preferences stored alongside the contacts.
type Settings struct {
	Username  string    `json:"username"`
	PublicKey PublicKey `json:"public_key"`
	SecretKey SecretKey `json:"secret_key"`

	BlockUnknown     bool `json:"block_unknown"`
	UseNeighborTable bool `json:"use_neighbor_table"`
	ConnectTimeout   int  `json:"connect_timeout"`

	// Passed through to the media engine untouched.
	NoAudioProcessing         bool `json:"no_audio_processing"`
	VideoHardwareAcceleration bool `json:"video_hardware_acceleration"`
}

// DefaultSettings returns the settings of a fresh database.
func DefaultSettings() Settings {
	return Settings{ConnectTimeout: DefaultConnectTimeout}
}

// Identity returns the key pair held in s.
func (s Settings) Identity() Identity {
	return Identity{PublicKey: s.PublicKey, SecretKey: s.SecretKey}
}

// ConnectTimeoutDuration returns the per-address connect timeout.
func (s Settings) ConnectTimeoutDuration() time.Duration {
	if s.ConnectTimeout <= 0 {
		return DefaultConnectTimeout * time.Millisecond
	}
	return time.Duration(s.ConnectTimeout) * time.Millisecond
}
