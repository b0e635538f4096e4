package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "todolist"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	DefaultLogName        = "todo.log"
)

type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Open      string `toml:"open"`
	Back      string `toml:"back"`
	Delete    string `toml:"delete"`
	Edit      string `toml:"edit"`
	Done      string `toml:"done"`
	Sort      string `toml:"sort"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
	NextField string `toml:"next_field"`
}

type Config struct {
	DBPath      string `toml:"db_path"`
	LogPath     string `toml:"log_path"`
	LogLevel    string `toml:"log_level"`
	DefaultSort string `toml:"default_sort"`
	Watch       bool   `toml:"watch"`
	Keys        Keymap `toml:"keys"`
}

// ResolveConfigPath returns $XDG_CONFIG_HOME/todolist/config.toml, falling back
// to the platform user config dir and finally the working directory.
func ResolveConfigPath() string {
	return filepath.Join(DefaultDir(), DefaultConfigFileName)
}

func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative db and log paths resolve against the
// config file's directory.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(filepath.Dir(path)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogName
	}
	cfg.Keys = cfg.Keys.withDefaults(defaultConfig().Keys)
	return cfg.resolve(filepath.Dir(path)), nil
}

func (c Config) resolve(dir string) Config {
	if !filepath.IsAbs(c.DBPath) {
		c.DBPath = filepath.Join(dir, c.DBPath)
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(dir, c.LogPath)
	}
	return c
}

// withDefaults fills keys left empty in the file.
func (k Keymap) withDefaults(d Keymap) Keymap {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&k.Quit, d.Quit)
	fill(&k.Add, d.Add)
	fill(&k.Up, d.Up)
	fill(&k.Down, d.Down)
	fill(&k.Open, d.Open)
	fill(&k.Back, d.Back)
	fill(&k.Delete, d.Delete)
	fill(&k.Edit, d.Edit)
	fill(&k.Done, d.Done)
	fill(&k.Sort, d.Sort)
	fill(&k.Confirm, d.Confirm)
	fill(&k.Cancel, d.Cancel)
	fill(&k.NextField, d.NextField)
	return k
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:      DefaultDBName,
		LogPath:     DefaultLogName,
		LogLevel:    "info",
		DefaultSort: "date",
		Watch:       true,
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Up:        "k",
			Down:      "j",
			Open:      "enter",
			Back:      "esc",
			Delete:    "d",
			Edit:      "e",
			Done:      " ",
			Sort:      "s",
			Confirm:   "enter",
			Cancel:    "esc",
			NextField: "tab",
		},
	}
}
