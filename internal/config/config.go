package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ChatRoot  string `toml:"chat_root"`
	OutDir    string `toml:"out_dir"`
	DBPath    string `toml:"db_path"`
	TOCWidth  int    `toml:"toc_width"`
	Requester string `toml:"requester"`
	Responder string `toml:"responder"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ChatRoot: filepath.Join(home, "copilot-chats"),
		OutDir:   ".",
		DBPath:   filepath.Join(home, ".config", "chat2md", "chat2md.db"),
		TOCWidth: 80,
	}

	cfgPath := filepath.Join(home, ".config", "chat2md", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ChatRoot = expandHome(cfg.ChatRoot, home)
	cfg.OutDir = expandHome(cfg.OutDir, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
