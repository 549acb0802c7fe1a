package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"runnerdb/internal/alias"
	"runnerdb/internal/config"
	"runnerdb/internal/importer"
	"runnerdb/internal/logging"
	"runnerdb/internal/merge"
	"runnerdb/internal/runnerdb"
	"runnerdb/internal/similarity"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// app bundles the store and the engine components for one command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *runnerdb.Store
	engine   *similarity.Engine
	merger   *merge.Coordinator
	resolver *alias.Resolver
}

func (a *app) importer(opts ...importer.Option) *importer.Batcher {
	return importer.New(a.store, a.cfg.Import, a.logger, opts...)
}

// withApp opens the store, runs fn, and closes the store again.
func (c *commandContext) withApp(fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	store, err := runnerdb.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open runner store: %w", err)
	}
	defer store.Close()

	return fn(&app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		engine:   similarity.New(cfg.Similarity, logger),
		merger:   merge.New(store, logger),
		resolver: alias.New(store, logger),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// resolveClub accepts a numeric club id or an exact canonical name.
func resolveClub(store *runnerdb.Store, arg string) (*runnerdb.Club, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if club, ok := store.Club(id); ok {
			return club, nil
		}
	}
	if club, ok := store.ClubByName(arg); ok {
		return club, nil
	}
	return nil, fmt.Errorf("%w: club %q", runnerdb.ErrNotFound, arg)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func optionalInt(value *int) string {
	if value == nil {
		return "-"
	}
	return strconv.Itoa(*value)
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
