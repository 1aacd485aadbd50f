// Package logging builds the structured loggers used across the snippet
// engine.
//
// Components accept a *slog.Logger and fall back to slog.Default(). This
// package turns the telemetry.logging configuration into such a logger and
// carries request-scoped fields (request id, lifecycle phase, snippet) in a
// context.Context so that dispatchers can log them without threading extra
// parameters:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Format: "text"})
//	ctx = logging.WithRequestID(ctx, id)
//	logging.FromContext(ctx, logger).Info("evaluating snippets")
package logging
