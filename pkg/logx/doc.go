// Package logx provides a small structured logging layer over zerolog.
//
// It exists so the rest of the codebase can log through a stable, minimal
// API (Logger + Field helpers) while the Service owns sink configuration
// (console, optional file) and can re-apply it at runtime when the config
// file changes.
package logx
