package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// layers lists the files making up the config at path, lowest priority
// first: "dir/config.json5" gives "dir/config.json5" then
// "dir/config.local.json5".
func layers(path string) []string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return []string{path, stem + ".local" + ext}
}

func decodeLayer[T any](path string) (T, bool, error) {
	var out T
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(strings.TrimSpace(string(contents))) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig decodes the json5 file at path and merges its ".local" sibling
// over it. It returns os.ErrNotExist when neither layer exists.
func ReadConfig[T any](path string) (T, error) {
	var out T
	found := false
	for _, layer := range layers(path) {
		value, ok, err := decodeLayer[T](layer)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		if found {
			slog.Info("merging config with local overrides", "local", layer)
		}
		err = mergo.Merge(&out, value, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", layer, err)
		}
		found = true
	}
	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively looks for name in dir and then in every parent directory,
// reading the first one found with ReadConfig.
func ReadRecursively[T any](dir, name string) (T, error) {
	var empty T
	current, err := filepath.Abs(dir)
	if err != nil {
		return empty, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil || !os.IsNotExist(err) {
			return config, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return empty, os.ErrNotExist
		}
		current = parent
	}
}

// OverrideFromEnv replaces *target with the environment variable key when it
// is set and non empty.
func OverrideFromEnv(target *string, key string) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return false
	}
	*target = value
	return true
}
