package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Configuration carries everything the shell wires into the interpreter.
type Configuration struct {
	Version    string
	BuildDate  string
	Commit     string
	PuffinHome string
	LogLevel   string
	LogFile    string
}

// fileConfig is the subset of Configuration settable from puffin.toml.
type fileConfig struct {
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// LoadFile overlays settings from a TOML file onto the configuration.
// When path is empty, $PUFFIN_HOME/puffin.toml is tried and may be
// absent; an explicitly named file must exist.
func (c *Configuration) LoadFile(path string) error {
	explicit := path != ""
	if !explicit {
		if c.PuffinHome == "" {
			return nil
		}
		path = filepath.Join(c.PuffinHome, "puffin.toml")
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading config %s: %w", path, err)
	}

	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	return nil
}
