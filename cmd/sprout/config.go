package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phanxgames/sprout"
)

const envPrefix = "SPROUT"

// cliConfig is the merged result of flags, SPROUT_* environment variables
// and the optional config file, in that order of precedence.
type cliConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	APIKey       string        `mapstructure:"api-key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Dictionary   string        `mapstructure:"dictionary"`
	Watch        bool          `mapstructure:"watch"`
	Placeholders bool          `mapstructure:"placeholders"`
	Debug        bool          `mapstructure:"debug"`
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", "", "config file (default: ./sprout.yaml or $HOME/.config/sprout/sprout.yaml)")
	f.String("endpoint", "", "generation service URL")
	f.String("api-key", "", "generation service bearer token")
	f.Duration("timeout", 2*time.Minute, "generation request timeout")
	f.String("dictionary", "", "vocabulary YAML overriding the built-in dictionary")
	f.Bool("watch", false, "reload the dictionary file when it changes")
	f.Bool("placeholders", false, "register generated objects before the service answers")
	f.BoolP("debug", "d", false, "print [sprout] trace lines to stderr")
}

// loadConfig binds cmd's flags into a fresh viper instance and reads the
// config file. A missing default config file is not an error; a missing
// file named with --config is.
func loadConfig(cmd *cobra.Command) (cliConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return cliConfig{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sprout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/sprout")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cliConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Watch && cfg.Dictionary == "" {
		return cliConfig{}, errors.New("--watch needs --dictionary")
	}
	return cfg, nil
}

// sessionConfig builds the engine configuration. The returned watcher is
// nil unless cfg.Watch is set; the caller closes it.
func (cfg cliConfig) sessionConfig() (sprout.SessionConfig, *sprout.DictionaryWatcher, error) {
	sprout.SetDebugMode(cfg.Debug)

	sc := sprout.SessionConfig{Placeholders: cfg.Placeholders}
	if cfg.Dictionary != "" {
		d, err := sprout.LoadDictionaryFile(cfg.Dictionary)
		if err != nil {
			return sc, nil, err
		}
		sc.Dictionary = d
	}
	if cfg.Endpoint != "" {
		gen, err := sprout.NewHTTPGenerator(sprout.HTTPGeneratorConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return sc, nil, err
		}
		sc.Generator = gen
	}

	var w *sprout.DictionaryWatcher
	if cfg.Watch {
		var err error
		if w, err = sprout.WatchDictionary(cfg.Dictionary); err != nil {
			return sc, nil, err
		}
	}
	return sc, w, nil
}
