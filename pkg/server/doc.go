// Package server hosts the snippet engine over HTTP.
//
// Every request gets its own lifecycle, so dispatcher state never leaks
// between requests. The router is chi:
//
//   - GET /healthz reports liveness.
//   - The metrics path serves the Prometheus registry when configured.
//   - GET {rest_route}/{id} returns the snippet as JSON. Both function
//     passes run first, so the snippet being edited is skipped exactly as
//     it would be on a real editor request.
//   - Every other request renders an HTML page: head content snippets,
//     the output of function snippets as the body, then footer content.
//
// # Basic Usage
//
//	engine := lifecycle.NewEngine(st, cfg.Execution.Timeout,
//	    lifecycle.WithSafeMode(config.SafeModeActive),
//	)
//	srv := server.NewServer(&cfg.Server, engine,
//	    server.WithSnippetSource(st),
//	    server.WithMetricsHandler(cfg.Telemetry.Metrics.Path, collector.Handler()),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled, SIGINT or SIGTERM arrives, or
// Shutdown is called, then drains in-flight requests within the configured
// shutdown timeout.
package server
