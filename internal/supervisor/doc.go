// Siteperf - Listings Site Request Telemetry and Response Caching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/siteperf

/*
Package supervisor provides process supervision for siteperf using suture v4.

# Tree Layout

	siteperf (root)
	├── cache-layer
	│   ├── cache-janitor     periodic Sweep of every cache
	│   └── config-watcher    log level hot reload (when a config file exists)
	└── api-layer
	    └── http-server       chi router behind net/http

Each layer is its own supervisor, so a janitor that keeps failing is
restarted with backoff without touching the HTTP server.

# Logging

Supervisor events (service failures, restarts, backoff) go through
sutureslog to a *slog.Logger. The server passes logging.NewSlogLogger() so
those events land in the same zerolog stream as everything else.

# Shutdown

Canceling the context passed to Serve stops every service. Services that do
not return within TreeConfig.ShutdownTimeout are listed by
UnstoppedServiceReport.
*/
package supervisor
