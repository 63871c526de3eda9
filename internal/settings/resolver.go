package settings

import (
	"slices"
	"strings"

	"eatsdash/internal/models"
)

// Resolved is the effective configuration for one device.
type Resolved struct {
	EngineID string
	Cache    bool
	Language string
	Options  map[string]any
	Volume   float64
}

// Resolve layers the device's override over the global defaults. Empty
// override values inherit: a cleared language or options map is treated the
// same as one never set.
func Resolve(s models.NotificationSettings, device string) Resolved {
	r := Resolved{
		EngineID: strings.TrimSpace(s.EngineID),
		Cache:    s.Cache,
		Language: strings.TrimSpace(s.Language),
		Options:  s.Options,
		Volume:   ClampVolume(s.Volume),
	}
	if v, ok := s.DeviceVolumes[device]; ok {
		r.Volume = ClampVolume(v)
	}

	o, ok := s.DeviceOverrides[device]
	if !ok {
		return r
	}
	if e := strings.TrimSpace(o.EngineID); e != "" {
		r.EngineID = e
	}
	if o.Cache != nil {
		r.Cache = *o.Cache
	}
	if o.Language != nil && strings.TrimSpace(*o.Language) != "" {
		r.Language = strings.TrimSpace(*o.Language)
	}
	if len(o.Options) > 0 {
		r.Options = o.Options
	}
	return r
}

// Write returns a new full document with patch applied to a deep copy of
// current, clamped and ready to persist. current is never modified.
func Write(current models.NotificationSettings, patch func(*models.NotificationSettings)) models.NotificationSettings {
	next := Normalize(current)
	if patch != nil {
		patch(&next)
	}
	return Normalize(next)
}

// AddDevice appends device unless it is empty or already listed.
func AddDevice(current models.NotificationSettings, device string) models.NotificationSettings {
	return Write(current, func(s *models.NotificationSettings) {
		device = strings.TrimSpace(device)
		if device == "" || slices.Contains(s.Devices, device) {
			return
		}
		s.Devices = append(s.Devices, device)
	})
}

// RemoveDevice drops device together with its override and volume. Removing
// an absent device is a no-op.
func RemoveDevice(current models.NotificationSettings, device string) models.NotificationSettings {
	return Write(current, func(s *models.NotificationSettings) {
		s.Devices = slices.DeleteFunc(s.Devices, func(id string) bool { return id == device })
		delete(s.DeviceOverrides, device)
		delete(s.DeviceVolumes, device)
	})
}

// UpdateOverride edits one device's override record in a new document.
func UpdateOverride(current models.NotificationSettings, device string, edit func(*models.DeviceOverride)) models.NotificationSettings {
	return Write(current, func(s *models.NotificationSettings) {
		o := s.DeviceOverrides[device]
		edit(&o)
		s.DeviceOverrides[device] = o
	})
}

func SetDeviceVolume(current models.NotificationSettings, device string, v float64) models.NotificationSettings {
	return Write(current, func(s *models.NotificationSettings) {
		s.DeviceVolumes[device] = ClampVolume(v)
	})
}

func SetDeviceEngine(current models.NotificationSettings, device, engine string) models.NotificationSettings {
	return UpdateOverride(current, device, func(o *models.DeviceOverride) {
		o.EngineID = strings.TrimSpace(engine)
	})
}

// ToggleDeviceCache flips the device's effective cache flag into its override.
func ToggleDeviceCache(current models.NotificationSettings, device string) models.NotificationSettings {
	next := !Resolve(current, device).Cache
	return UpdateOverride(current, device, func(o *models.DeviceOverride) {
		o.Cache = &next
	})
}

func SetDeviceLanguage(current models.NotificationSettings, device, language string) models.NotificationSettings {
	return UpdateOverride(current, device, func(o *models.DeviceOverride) {
		o.Language = &language
	})
}

func SetDeviceOptions(current models.NotificationSettings, device string, options map[string]any) models.NotificationSettings {
	return UpdateOverride(current, device, func(o *models.DeviceOverride) {
		if options == nil {
			options = map[string]any{}
		}
		o.Options = options
	})
}

// Clone deep-copies the collections of s.
func Clone(s models.NotificationSettings) models.NotificationSettings {
	out := s
	if s.Devices != nil {
		out.Devices = slices.Clone(s.Devices)
	}
	if s.DeviceVolumes != nil {
		out.DeviceVolumes = make(map[string]float64, len(s.DeviceVolumes))
		for k, v := range s.DeviceVolumes {
			out.DeviceVolumes[k] = v
		}
	}
	if s.DeviceOverrides != nil {
		out.DeviceOverrides = make(map[string]models.DeviceOverride, len(s.DeviceOverrides))
		for k, o := range s.DeviceOverrides {
			out.DeviceOverrides[k] = cloneOverride(o)
		}
	}
	out.Options = cloneOptions(s.Options)
	return out
}

func cloneOverride(o models.DeviceOverride) models.DeviceOverride {
	if o.Cache != nil {
		c := *o.Cache
		o.Cache = &c
	}
	if o.Language != nil {
		l := *o.Language
		o.Language = &l
	}
	o.Options = cloneOptions(o.Options)
	return o
}

func cloneOptions(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
