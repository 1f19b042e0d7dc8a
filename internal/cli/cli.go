// Package cli implements the kinboard command-line interface.
//
// The commands manage the family tree stored in the configured backend,
// render and export it, and run the interactive canvas either in the
// terminal ("kinboard tui") or behind an HTTP server ("kinboard serve").
// The CLI is built using cobra and logs with charmbracelet/log.
//
// # Commands
//
//   - init: seed the store with the starter tree
//   - member, connection: list and edit the tree
//   - relation, family: resolve relationships to the self member
//   - render: draw the tree as SVG or Graphviz output
//   - export, import: move the tree between stores and files
//   - tui: interactive canvas in the terminal
//   - serve: REST API, live canvas over WebSocket and metrics
//   - config: inspect and create the configuration file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and handed to stores, the controller and
// the server.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinboard/pkg/config"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/store"
)

// appName is the application name used for display.
const appName = "kinboard"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// flags shared by every command
	configPath string
	backend    string
	storePath  string
	zh         bool

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration file once and applies flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
	}
	if c.storePath != "" {
		cfg.Store.Path = c.storePath
	}
	if c.zh {
		cfg.Canvas.Locale = config.LocaleZH
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", path, "backend", cfg.Store.Backend)
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Store Factory
// =============================================================================

// openService opens the configured store and wraps it in a family.Service.
// The returned func closes the store.
func (c *CLI) openService(ctx context.Context) (*family.Service, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := loggerFromContext(ctx)
	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	closeFn := func() {
		if err := s.Close(); err != nil {
			logger.Warn("close store", "err", err)
		}
	}
	return family.NewService(s, logger), closeFn, nil
}

// loadSnapshot opens the store, reads everything and closes it again.
func (c *CLI) loadSnapshot(ctx context.Context) (family.Snapshot, error) {
	svc, done, err := c.openService(ctx)
	if err != nil {
		return family.Snapshot{}, err
	}
	defer done()
	return svc.Load(ctx)
}
