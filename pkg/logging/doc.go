// Package logging provides the structured logging system for roomop.
//
// It wraps Go's standard slog package with subsystem-tagged, printf-style
// helpers so call sites stay terse:
//
//	logging.Init(logging.LevelInfo, os.Stdout)
//	logging.Info("Reconciler", "cycle finished for room %s", roomID)
//	logging.Error("SpecSource", err, "failed to load %s", path)
//
// Subsystem names group log output by component (Bootstrap, Config,
// Reconciler, Guardrails, Events, Server, SpecSource, Clients) and make
// filtering practical without per-component logger plumbing.
package logging
