// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/siteperf/internal/logging"
)

// WatchFunc starts watching a file and returns a function that stops it.
// config.WatchConfigFile satisfies it.
type WatchFunc func(path string, onChange func()) (stop func() error, err error)

// ConfigWatchService reloads settings while a config file is watched.
//
// The watch starts when Serve is called and stops when its context ends, so
// a restart by the supervisor re-establishes a watch that failed.
//
//	svc := services.NewConfigWatchService(path, config.WatchConfigFile, reloadLogLevel)
//	tree.AddCacheService(svc)
type ConfigWatchService struct {
	path   string
	watch  WatchFunc
	reload func()
	name   string
}

// NewConfigWatchService creates the service. reload runs on every change.
func NewConfigWatchService(path string, watch WatchFunc, reload func()) *ConfigWatchService {
	return &ConfigWatchService{
		path:   path,
		watch:  watch,
		reload: reload,
		name:   "config-watcher",
	}
}

// Serve implements suture.Service.
func (c *ConfigWatchService) Serve(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("config watcher: no config file: %w", suture.ErrDoNotRestart)
	}

	stop, err := c.watch(c.path, func() {
		logging.Info().Str("path", c.path).Msg("Config file changed, reloading")
		c.reload()
	})
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	logging.Debug().Str("path", c.path).Msg("Watching config file")

	<-ctx.Done()
	if err := stop(); err != nil {
		logging.Warn().Err(err).Str("path", c.path).Msg("Failed to stop config watch")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture's log messages.
func (c *ConfigWatchService) String() string {
	return c.name
}
