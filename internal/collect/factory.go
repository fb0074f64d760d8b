package collect

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/verifier/internal/model"
)

// NewCollector creates a named collector: openai, feed or none
func NewCollector(name string, cfg model.CollectorConfig, client *http.Client, logger *slog.Logger) (Collector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return NewOpenAICollector(cfg.OpenAI, logger)

	case "feed", "rss":
		return NewFeedCollector(cfg.Feed, client, logger)

	case "none", "":
		return Nop{}, nil

	default:
		return nil, fmt.Errorf("unknown collector: %s (supported: openai, feed, none)", name)
	}
}

// NewRegistryFromConfig builds the default collector and every routed one.
// Collectors are shared between producers routed to the same name.
func NewRegistryFromConfig(cfg model.CollectorConfig, client *http.Client, logger *slog.Logger) (*Registry, error) {
	built := make(map[string]Collector)
	build := func(name string) (Collector, error) {
		key := strings.ToLower(strings.TrimSpace(name))
		if c, ok := built[key]; ok {
			return c, nil
		}
		c, err := NewCollector(key, cfg, client, logger)
		if err != nil {
			return nil, err
		}
		built[key] = c
		return c, nil
	}

	fallback, err := build(cfg.Default)
	if err != nil {
		return nil, fmt.Errorf("default collector: %w", err)
	}
	reg := NewRegistry(fallback)

	for producer, name := range cfg.Routes {
		c, err := build(name)
		if err != nil {
			return nil, fmt.Errorf("collector for producer %s: %w", producer, err)
		}
		reg.Register(producer, c)
	}
	return reg, nil
}
