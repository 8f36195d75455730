package main

import (
	"github.com/FocuswithJustin/tcvalidate/internal/api"
	"github.com/FocuswithJustin/tcvalidate/internal/config"
)

// ServeCmd starts the check server.
type ServeCmd struct {
	Listen         string   `help:"Listen address (default: configured)"`
	APIKey         string   `name:"api-key" help:"Require this key in X-API-Key" env:"TCV_API_KEY"`
	RateLimit      int      `name:"rate-limit" help:"Requests per minute per client (0 = unlimited)"`
	RateBurst      int      `name:"rate-burst" help:"Rate limit burst size" default:"10"`
	AllowedOrigins []string `name:"allowed-origin" help:"Allowed CORS and websocket origins (default: all)" sep:","`
}

func (c *ServeCmd) Run(g *app) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}
	rt, err := config.Open(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := api.New(rt, api.Config{
		Listen:            cfg.Listen,
		Version:           version,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateBurst,
		Auth:              api.AuthConfig{Enabled: c.APIKey != "", APIKey: c.APIKey},
		AllowedOrigins:    c.AllowedOrigins,
	})
	if err != nil {
		return err
	}
	return srv.Run(g.ctx)
}
