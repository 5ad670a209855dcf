// Package handlers provides HTTP handlers for the rosterd server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"log/slog"

	"github.com/nomis52/rosterd/config"
	"github.com/nomis52/rosterd/report"
	"github.com/nomis52/rosterd/roster"
	"github.com/nomis52/rosterd/server/types"
)

// ActivityLister lists every activity with its roster.
type ActivityLister interface {
	Activities() map[string]roster.Activity
}

// RosterEditor changes activity rosters.
type RosterEditor interface {
	Signup(activity, email string) (string, error)
	Unregister(activity, email string) (string, error)
}

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// ReportProvider builds roster summaries.
type ReportProvider interface {
	Summarize() report.Summary
}

// PropertiesProvider describes the running server.
type PropertiesProvider interface {
	Properties() types.ServerProperties
}

// LogLevelController reads and changes the server's log level.
type LogLevelController interface {
	LogLevel() (slog.Level, error)
	SetLogLevel(level slog.Level) error
}
