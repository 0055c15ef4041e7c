package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvString returns the trimmed value of key and whether it was set to a
// non-blank value.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer. An unset or blank variable is not an error.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, true, nil
}
