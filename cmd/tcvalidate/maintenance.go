package main

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/tcvalidate/core/disabled"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
)

// CacheGroup contains cache maintenance commands.
type CacheGroup struct {
	Clear CacheClearCmd `cmd:"" help:"Empty the content cache and the already-checked set"`
}

// CacheClearCmd empties the persistent content cache.
type CacheClearCmd struct{}

func (c *CacheClearCmd) Run(g *app) error {
	rt, err := g.open()
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.ClearCaches(g.ctx)
	if err != nil {
		return err
	}
	logging.InfoContext(g.ctx, "caches cleared", "entries", n)
	fmt.Fprintf(g.out, "Removed %d cached entries\n", n)
	return nil
}

// RulesGroup contains notice disabling rule commands.
type RulesGroup struct {
	List RulesListCmd `cmd:"" help:"Print the active notice disabling rules"`
}

// RulesListCmd prints the rules in effect, as YAML or JSON.
type RulesListCmd struct{}

func (c *RulesListCmd) Run(g *app) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	rules := disabled.Default()
	if cfg.RulesFile != "" {
		if rules, err = disabled.Load(cfg.RulesFile); err != nil {
			return err
		}
	}

	list := struct {
		Rules []disabled.Rule `yaml:"rules" json:"rules"`
	}{Rules: rules.List()}
	if g.Output == "json" {
		enc := json.NewEncoder(g.out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	enc := yaml.NewEncoder(g.out)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return err
	}
	return enc.Close()
}
