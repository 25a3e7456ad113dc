package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override file values.
// INFUSE_SITE_PORT overrides site.port.
const EnvPrefix = "INFUSE"

// LoadFile reads a YAML, TOML or JSON settings file into a tree suitable for New.
// The format is taken from the file extension. Keys present in the file can be
// overridden by environment variables named after EnvPrefix and the key path.
func LoadFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var unsupported viper.UnsupportedConfigError
		if errors.As(err, &unsupported) {
			return nil, errors.Join(ErrUnsupportedFormat, err)
		}
		return nil, errors.Join(ErrReadFile, err)
	}

	return v.AllSettings(), nil
}
