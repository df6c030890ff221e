// Package profile loads named radio modulation presets from a TOML file.
package profile

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
)

// Profile is one named modulation preset.
type Profile struct {
	SpreadFactor    int `toml:"spread_factor"`
	BandwidthKHz    int `toml:"bandwidth_khz"`
	CodingRate      int `toml:"coding_rate"`
	MaxPayloadBytes int `toml:"max_payload_bytes"`
}

// Params converts the profile to modulation parameters.
func (p Profile) Params() airtime.Params {
	return airtime.Params{
		SpreadFactor:    p.SpreadFactor,
		BandwidthKHz:    p.BandwidthKHz,
		CodingRate:      p.CodingRate,
		MaxPayloadBytes: p.MaxPayloadBytes,
	}
}

// Defaults returns the built-in presets.
func Defaults() map[string]Profile {
	return map[string]Profile{
		"eu868-sf12": {SpreadFactor: 12, BandwidthKHz: 125, CodingRate: 1},
		"eu868-sf9":  {SpreadFactor: 9, BandwidthKHz: 125, CodingRate: 1},
		"eu868-sf7":  {SpreadFactor: 7, BandwidthKHz: 125, CodingRate: 1},
		"us915-sf7":  {SpreadFactor: 7, BandwidthKHz: 500, CodingRate: 1},
	}
}

// Load reads presets from a TOML file and merges them over the
// defaults; file entries win. An empty path returns just the defaults.
//
// File format, one table per preset:
//
//	[eu868-sf12]
//	spread_factor = 12
//	bandwidth_khz = 125
//	coding_rate = 1
func Load(path string) (map[string]Profile, error) {
	profiles := Defaults()
	if path == "" {
		return profiles, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	var fromFile map[string]Profile
	if err := toml.Unmarshal(b, &fromFile); err != nil {
		return nil, fmt.Errorf("parsing profiles %s: %w", path, err)
	}

	for name, p := range fromFile {
		profiles[name] = p
	}

	for name, p := range profiles {
		if err := p.Params().Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
	}
	return profiles, nil
}
