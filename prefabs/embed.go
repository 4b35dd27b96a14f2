package prefabs

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed *.yaml scripts/*.tengo
var files embed.FS

// Overrides is the directory searched before the embedded files, so configs
// and scripts can be edited while a host runs from the repository root.
// Empty disables the lookup.
var Overrides = "prefabs"

// Load returns a config file such as "game.yaml" or "prefabs/wave.yaml".
func Load(name string) ([]byte, error) {
	return read(configPath(name))
}

// LoadScript returns a decision script. "alien", "scripts/alien.tengo" and
// "prefabs/scripts/alien.tengo" all name the same file.
func LoadScript(name string) ([]byte, error) {
	return read(scriptPath(name))
}

func read(rel string) ([]byte, error) {
	if Overrides != "" {
		data, err := os.ReadFile(filepath.Join(Overrides, filepath.FromSlash(rel)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return files.ReadFile(rel)
}

func configPath(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(name), "prefabs/")
}

func scriptPath(name string) string {
	s := configPath(name)
	s = strings.TrimPrefix(s, "scripts/")
	if path.Ext(s) != ".tengo" {
		s += ".tengo"
	}
	return path.Join("scripts", s)
}
