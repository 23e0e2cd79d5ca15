package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kochabx/carelink/core/tag"
	"github.com/kochabx/carelink/core/validator"
	"github.com/kochabx/carelink/errors"
)

// EnvPrefix namespaces environment overrides: api.base_url is read from
// CARELINK_API_BASE_URL.
const EnvPrefix = "CARELINK"

// FileLoader loads configuration from a yaml/json/toml file with environment
// overrides. Struct fields are matched by their json tag.
type FileLoader struct {
	viper    *viper.Viper
	validate validator.Validator
	name     string
	paths    []string
	optional bool
}

// NewFileLoader searches paths for name. When paths is empty name is used
// as a file path.
func NewFileLoader(name string, paths []string, v *viper.Viper, validate validator.Validator) *FileLoader {
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(name), "."))

	if len(paths) == 0 {
		v.SetConfigFile(name)
	} else {
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName(name)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		validate: validate,
		name:     name,
		paths:    paths,
	}
}

// Load implements Loader.
func (l *FileLoader) Load(target any) error {
	// defaults first so that keys missing from the file keep them
	if err := tag.ApplyDefaults(target); err != nil {
		return errors.New(500, "failed to apply defaults: %v", err)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		if !l.optional || !isNotFound(err) {
			return errors.New(404, "config file not found: %v", err)
		}
	}

	if err := l.bindEnv(target); err != nil {
		return errors.New(500, "config env binding error: %v", err)
	}

	if err := l.viper.Unmarshal(target, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return errors.New(500, "config parse error: %v", err)
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.New(400, "config validation failed: %v", err)
		}
	}

	return nil
}

// Watch implements Loader.
func (l *FileLoader) Watch(callback func()) error {
	if l.viper.ConfigFileUsed() == "" {
		return errors.New(400, "no config file to watch")
	}

	l.viper.OnConfigChange(func(fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})
	l.viper.WatchConfig()
	return nil
}

// bindEnv registers every key of target with viper. AutomaticEnv only
// consults the environment for keys viper already knows, which would leave
// env-only settings invisible when the file omits them.
func (l *FileLoader) bindEnv(target any) error {
	var keys map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &keys,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(target); err != nil {
		return err
	}
	for _, key := range flatten("", keys) {
		if err := l.viper.BindEnv(key); err != nil {
			return err
		}
	}
	return nil
}

func flatten(prefix string, m map[string]any) []string {
	var keys []string
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			keys = append(keys, flatten(key, nested)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
