// Package config loads the optional per-project configuration file that
// tunes DOT rendering, SVG output, and query defaults. Grounded on the
// original's utils::config module and the viper-based config layering
// pattern used by the pack's CLI tools (see DESIGN.md).
package config

import (
	"github.com/spf13/viper"
)

// Dot tunes graph rendering.
type Dot struct {
	Clusters bool   `mapstructure:"clusters"`
	Legend   bool   `mapstructure:"legend"`
	Theme    string `mapstructure:"theme"`   // "light" | "dark"
	RankDir  string `mapstructure:"rankdir"` // "LR" | "TB"
	Splines  string `mapstructure:"splines"` // "curved" | "ortho" | "polyline"
	Rounded  bool   `mapstructure:"rounded"`
}

// Svg tunes the interactive SVG viewer.
type Svg struct {
	Interactive bool `mapstructure:"interactive"`
}

// Query tunes default query output.
type Query struct {
	DefaultFormat string `mapstructure:"default_format"` // "text" | "json"
}

// Config is the full shape of kgraph.toml.
type Config struct {
	Root  string `mapstructure:"root"`
	Dot   Dot    `mapstructure:"dot"`
	Svg   Svg    `mapstructure:"svg"`
	Query Query  `mapstructure:"query"`
}

func defaults() Config {
	return Config{
		Dot: Dot{Clusters: true, Legend: true, Theme: "light", RankDir: "LR", Splines: "curved", Rounded: true},
		Query: Query{
			DefaultFormat: "text",
		},
	}
}

// Load reads kgraph.toml (or .yaml/.json) from root if present, falling
// back to rust-relations-explorer.toml / knowledge-rs.toml for
// compatibility with the config file names the original project used, then
// layers KGRAPH_-prefixed environment variables on top. A missing file is
// not an error: Load returns the defaults.
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.AddConfigPath(root)
	v.SetEnvPrefix("KGRAPH")
	v.AutomaticEnv()

	cfg := defaults()
	v.SetDefault("dot.clusters", cfg.Dot.Clusters)
	v.SetDefault("dot.legend", cfg.Dot.Legend)
	v.SetDefault("dot.theme", cfg.Dot.Theme)
	v.SetDefault("dot.rankdir", cfg.Dot.RankDir)
	v.SetDefault("dot.splines", cfg.Dot.Splines)
	v.SetDefault("dot.rounded", cfg.Dot.Rounded)
	v.SetDefault("query.default_format", cfg.Query.DefaultFormat)

	for _, name := range []string{"kgraph", "rust-relations-explorer", "knowledge-rs"} {
		v.SetConfigName(name)
		if err := v.ReadInConfig(); err == nil {
			break
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
