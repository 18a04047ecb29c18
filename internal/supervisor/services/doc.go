// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package services provides suture.Service wrappers for siteperf components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve(ctx) error and names itself through fmt.Stringer for suture's logs.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Listen failures are returned so the supervisor restarts the server

Config Watcher (ConfigWatchService):
  - Watches the YAML config file and runs a reload callback on change
  - Stops the watch when the supervisor stops the service

The cache janitor (cache.Janitor) already implements Serve and String and is
added to the tree directly.

# Usage Example

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddCacheService(cache.NewJanitor(cfg.Cache.JanitorInterval, responses, summaries))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
*/
package services
