package viper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cardtrack/cardtrack/internal/meta"
	v "github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment override, e.g.
// CARDTRACK_DEFAULT_BASE_URL.
var EnvPrefix = strings.ToUpper(meta.CLIName)

// InitializeDefaultViper initializes a viper instance with default values and a path to a file
// If the file does not exist, it will be created with the default values
func InitializeDefaultViper(defaultValues map[string]any, path string) (*v.Viper, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	rv := NewViper(path)

	if len(rv.AllSettings()) == 0 {
		// the 'loaded' viper is empty, so we assume it's uninitialized and
		// set the default and the write back to the file
		if err := rv.MergeConfigMap(defaultValues); err != nil {
			return nil, err
		}
		if err := rv.WriteConfig(); err != nil {
			return nil, err
		}
	}

	return rv, nil
}

func NewViperE(path string) (*v.Viper, error) {
	rv := NewViper(path)
	if err := rv.ReadInConfig(); err != nil {
		return nil, err
	}
	return rv, nil
}

func NewViper(path string) *v.Viper {
	rv := v.New()
	rv.SetConfigFile(path)
	ConfigureEnvVars(rv, EnvPrefix)
	_ = rv.ReadInConfig()
	return rv
}

// ConfigureEnvVars makes rv resolve keys from the environment, mapping
// "." and "-" in keys to "_".
func ConfigureEnvVars(rv *v.Viper, prefix string) {
	rv.SetEnvPrefix(prefix)
	rv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	rv.AutomaticEnv()
}
