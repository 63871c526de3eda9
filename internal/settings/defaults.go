package settings

import (
	"strings"

	"eatsdash/internal/models"
)

const (
	DefaultMessagePrefix     = "Message from Uber Eats"
	DefaultVolume            = 0.5
	DefaultIntervalMinutes   = 10
	DefaultProximityFeet     = 200
	MinIntervalMinutes       = 5
	MaxIntervalMinutes       = 15
	MinProximityFeet         = 50
	MaxProximityFeet         = 2000
	ProximityRearmMarginFeet = 50

	deviceRefPrefix     = "media_player."
	automationRefPrefix = "automation."
)

// Defaults is the document used before anything is stored and whenever a
// settings fetch fails.
func Defaults() models.NotificationSettings {
	return models.NotificationSettings{
		Devices:               []string{},
		MessagePrefix:         DefaultMessagePrefix,
		Volume:                DefaultVolume,
		DeviceVolumes:         map[string]float64{},
		DeviceOverrides:       map[string]models.DeviceOverride{},
		Cache:                 true,
		Options:               map[string]any{},
		IntervalMinutes:       DefaultIntervalMinutes,
		ProximityDistanceFeet: DefaultProximityFeet,
	}
}

// ClampInterval treats zero as unset and clamps to [5, 15].
func ClampInterval(minutes int) int {
	if minutes == 0 {
		minutes = DefaultIntervalMinutes
	}
	return clampInt(minutes, MinIntervalMinutes, MaxIntervalMinutes)
}

// ClampProximity treats zero as unset and clamps to [50, 2000].
func ClampProximity(feet int) int {
	if feet == 0 {
		feet = DefaultProximityFeet
	}
	return clampInt(feet, MinProximityFeet, MaxProximityFeet)
}

// StepInterval moves minutes by delta from its displayed value. The result
// stays in range even where a step lands on zero.
func StepInterval(minutes, delta int) int {
	return clampInt(ClampInterval(minutes)+delta, MinIntervalMinutes, MaxIntervalMinutes)
}

// StepProximity moves feet by delta steps of MinProximityFeet from its
// displayed value, stopping at the range ends.
func StepProximity(feet, delta int) int {
	return clampInt(ClampProximity(feet)+delta*MinProximityFeet, MinProximityFeet, MaxProximityFeet)
}

func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize prepares a stored or fetched document for display: domains are
// clamped and nil collections become empty.
func Normalize(s models.NotificationSettings) models.NotificationSettings {
	s = Clone(s)
	if s.Devices == nil {
		s.Devices = []string{}
	}
	if s.DeviceVolumes == nil {
		s.DeviceVolumes = map[string]float64{}
	}
	if s.DeviceOverrides == nil {
		s.DeviceOverrides = map[string]models.DeviceOverride{}
	}
	if s.Options == nil {
		s.Options = map[string]any{}
	}
	if strings.TrimSpace(s.MessagePrefix) == "" {
		s.MessagePrefix = DefaultMessagePrefix
	}
	s.Volume = ClampVolume(s.Volume)
	for id, v := range s.DeviceVolumes {
		s.DeviceVolumes[id] = ClampVolume(v)
	}
	s.IntervalMinutes = ClampInterval(s.IntervalMinutes)
	s.ProximityDistanceFeet = ClampProximity(s.ProximityDistanceFeet)
	return s
}

// Sanitize applies the backend's acceptance rules to an incoming document.
func Sanitize(s models.NotificationSettings) models.NotificationSettings {
	s = Normalize(s)
	s.EngineID = strings.TrimSpace(s.EngineID)
	s.MessagePrefix = strings.TrimSpace(s.MessagePrefix)
	if s.MessagePrefix == "" {
		s.MessagePrefix = DefaultMessagePrefix
	}
	s.ProximityAutomation = strings.TrimSpace(s.ProximityAutomation)

	seen := make(map[string]bool, len(s.Devices))
	devices := make([]string, 0, len(s.Devices))
	for _, id := range s.Devices {
		if !strings.HasPrefix(id, deviceRefPrefix) || seen[id] {
			continue
		}
		seen[id] = true
		devices = append(devices, id)
	}
	s.Devices = devices
	return s
}

// ProximityReady reports whether the proximity automation can fire.
func ProximityReady(s models.NotificationSettings) bool {
	ref := strings.TrimSpace(s.ProximityAutomation)
	return s.ProximityEnabled && strings.HasPrefix(ref, automationRefPrefix)
}
