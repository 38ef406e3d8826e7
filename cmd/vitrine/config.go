package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
)

// Profiles let one machine talk to several vitrine deployments:
//
//	[[profile]]
//	name = "default"
//	endpoint = "https://vitrine.example.com"
type profile struct {
	Name     string `toml:"name"`
	Endpoint string `toml:"endpoint"`
}

// loadConfig resolves the named profile from a TOML config file. An empty
// path falls back to $VITRINE_CONFIG_FILE, then ~/.vitrine/config.toml.
func loadConfig(path, profileName string) (profile, error) {
	if path == "" {
		path = os.Getenv("VITRINE_CONFIG_FILE")
	}
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return profile{}, fmt.Errorf("cannot locate home directory: %v", err)
		}
		path = filepath.Join(home, ".vitrine", "config.toml")
	}
	var cfg struct {
		Profile []profile
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return profile{}, fmt.Errorf("cannot load config %s: %v", path, err)
	}
	for _, p := range cfg.Profile {
		if p.Name == profileName {
			return p, nil
		}
	}
	return profile{}, fmt.Errorf("profile %q not found in %s", profileName, path)
}
