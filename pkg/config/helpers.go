package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SetValue sets a configuration value by key
// Supported keys:
//   - log_level: string - Logging level (debug, info, warn, error)
//   - log_format: string - Log output format (text, json)
//   - command_timeout: duration - Limit for a single command, 0 disables it
//   - command_dir: string - Working directory for commands
//   - package_marker: string - File that marks a package directory
//   - default_file_mode: octal string - Mode for extracted entries that store none
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "log_level":
		c.Settings.LogLevel = value
	case "log_format":
		c.Settings.LogFormat = value
	case "command_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.CommandTimeout = d
	case "command_dir":
		c.Settings.CommandDir = value
	case "package_marker":
		c.Settings.PackageMarker = value
	case "default_file_mode":
		if _, err := ParseFileMode(value); err != nil {
			return err
		}
		c.Settings.DefaultFileMode = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of key as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "log_level":
		return c.Settings.LogLevel, nil
	case "log_format":
		return c.Settings.LogFormat, nil
	case "command_timeout":
		return c.Settings.CommandTimeout.String(), nil
	case "command_dir":
		return c.Settings.CommandDir, nil
	case "package_marker":
		return c.Settings.PackageMarker, nil
	case "default_file_mode":
		return c.Settings.DefaultFileMode, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// ToMap flattens the settings into yaml key / string value pairs.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "command_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]

		fieldValue := settingsValue.Field(i)
		switch {
		case field.Type == durationType:
			result[yamlKey] = time.Duration(fieldValue.Int()).String()
		case fieldValue.Kind() == reflect.String:
			result[yamlKey] = fieldValue.String()
		default:
			result[yamlKey] = fmt.Sprintf("%v", fieldValue.Interface())
		}
	}

	return result
}
