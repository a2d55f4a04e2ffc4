package config

import (
	"reflect"
	"strings"
	"sync"
)

// EnvMapping binds an environment variable to a dotted config path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
	Sensitive  bool
}

var (
	cachedMappings []EnvMapping
	mappingsOnce   sync.Once
)

// GenerateEnvMappings walks the Config struct tags once and returns every
// env-backed field.
func GenerateEnvMappings() []EnvMapping {
	mappingsOnce.Do(func() {
		cachedMappings = collectMappings(reflect.TypeOf(Config{}), "")
	})
	return cachedMappings
}

func collectMappings(t reflect.Type, prefix string) []EnvMapping {
	var out []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("koanf")
		if !field.IsExported() || key == "" || key == "-" {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			out = append(out, collectMappings(field.Type, path)...)
			continue
		}
		envVar := field.Tag.Get("env")
		if envVar == "" || envVar == "-" {
			continue
		}
		out = append(out, EnvMapping{
			EnvVar:     envVar,
			ConfigPath: path,
			Sensitive:  field.Tag.Get("sensitive") == "true" || field.Type.Name() == "SensitiveString",
		})
	}
	return out
}

// GetEnvVarForConfigPath returns the environment variable for a config path.
func GetEnvVarForConfigPath(configPath string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == configPath {
			return m.EnvVar
		}
	}
	return ""
}

// IsSensitiveConfigPath reports whether a config path holds a secret.
func IsSensitiveConfigPath(configPath string) bool {
	configPath = strings.TrimSpace(configPath)
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == configPath {
			return m.Sensitive
		}
	}
	return false
}
