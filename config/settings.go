package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// DefaultPageSize applies when the settings file does not name a page size.
const DefaultPageSize = 20

// FeatureRatings gates the rating endpoints.
const FeatureRatings = "Ratings"

// Settings are the runtime options read from the JSON settings file.
type Settings struct {
	PageSize int
	Features map[string]bool
}

// FallbackSettings is used when the settings file cannot be read.
func FallbackSettings() Settings {
	return Settings{
		PageSize: 10,
		Features: map[string]bool{FeatureRatings: true},
	}
}

// IsEnabled reports whether the named feature flag is on. Unknown flags are off.
func (s Settings) IsEnabled(name string) bool {
	return s.Features[name]
}

// LoadSettings reads the settings file at path. The file layout is
//
//	{
//	  "Settings": {"PageSize": 20},
//	  "feature_management": {"feature_flags": [{"id": "Ratings", "enabled": true}]}
//	}
//
// where PageSize may also be an object {"Default": n} and enabled may be the
// string "true".
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}

	settings := Settings{
		PageSize: pageSize(v.Get("settings.pagesize")),
		Features: make(map[string]bool),
	}

	rawFlags := v.Get("feature_management.feature_flags")
	if rawFlags == nil {
		return settings, nil
	}
	flags, err := cast.ToSliceE(rawFlags)
	if err != nil {
		return Settings{}, fmt.Errorf("feature flags in %s: %w", path, err)
	}
	for _, raw := range flags {
		flag := lowerKeys(cast.ToStringMap(raw))
		id := strings.TrimSpace(cast.ToString(flag["id"]))
		if id == "" {
			continue
		}
		settings.Features[id] = cast.ToBool(flag["enabled"])
	}

	return settings, nil
}

func pageSize(raw any) int {
	if raw == nil {
		return DefaultPageSize
	}
	if nested, err := cast.ToStringMapE(raw); err == nil {
		value, ok := lowerKeys(nested)["default"]
		if !ok {
			return DefaultPageSize
		}
		raw = value
	}
	size, err := cast.ToIntE(raw)
	if err != nil || size <= 0 {
		return DefaultPageSize
	}
	return size
}

func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
