package reader

import "github.com/metcalfc/prr/internal/voice"

// Bounds for playback settings.
const (
	MinRate, MaxRate     = 0.5, 2.0
	MinPitch, MaxPitch   = 0.0, 2.0
	MinVolume, MaxVolume = 0.0, 1.0
)

// Settings are the user's playback choices. They survive loading a new
// document and apply from the next Play.
type Settings struct {
	Voice  voice.Key
	Rate   float64
	Pitch  float64
	Volume float64
}

// DefaultSettings returns rate, pitch and volume of 1 and no voice.
func DefaultSettings() Settings {
	return Settings{Rate: 1, Pitch: 1, Volume: 1}
}

// Clamp forces every value into its bounds.
func (s Settings) Clamp() Settings {
	s.Rate = clamp(s.Rate, MinRate, MaxRate)
	s.Pitch = clamp(s.Pitch, MinPitch, MaxPitch)
	s.Volume = clamp(s.Volume, MinVolume, MaxVolume)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
