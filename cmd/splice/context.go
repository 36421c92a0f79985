package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"splice/internal/catalog"
	"splice/internal/config"
	"splice/internal/logging"
	"splice/internal/notifications"
	"splice/internal/services"
	"splice/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger

	store *store.Store
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
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
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "Invalid configuration", err)
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "prepare directories", "Failed to create state directories", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.log = logging.NewNop()
			return
		}
		c.log = logger
	})
	return c.log
}

// openStore opens the state database once per command invocation.
func (c *commandContext) openStore() (*store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	c.store = st
	return st, nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func (c *commandContext) notifier() notifications.Service {
	return notifications.NewService(c.config)
}

// catalogService wires the cached ffprobe prober and the ledger audit log.
func (c *commandContext) catalogService() (*catalog.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	return &catalog.Service{
		Prober: &catalog.CachedProber{
			Next:   catalog.NewProber(cfg.FFprobeBinary(), logger),
			Cache:  st,
			Logger: logger,
		},
		Events: st,
		Logger: logger,
	}, nil
}

func (c *commandContext) catalog(name string) (config.Catalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return config.Catalog{}, err
	}
	cat, ok := cfg.Catalog(name)
	if !ok {
		known := strings.Join(cfg.CatalogNames(), ", ")
		if known == "" {
			known = "none configured"
		}
		return config.Catalog{}, services.Wrap(services.ErrValidation, "cli", "select catalog",
			fmt.Sprintf("unknown catalog %q (known: %s)", name, known), nil)
	}
	return cat, nil
}

// catalogsFor returns the named catalogs, or every configured catalog when
// names is empty.
func (c *commandContext) catalogsFor(names []string) ([]config.Catalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if len(cfg.Catalogs) == 0 {
			return nil, errors.New("no catalogs configured; add [[catalogs]] entries to the config file")
		}
		return cfg.Catalogs, nil
	}
	out := make([]config.Catalog, 0, len(names))
	for _, name := range names {
		cat, err := c.catalog(name)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
