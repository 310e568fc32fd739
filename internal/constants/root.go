package constants

import "time"

const (
	AppName            = "weeklit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/weeklit"
	DefaultDBPath      = "~/.config/weeklit/weeklit.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DisplayDateFormat renders dates the way the week range is shown to users (Jan 2, 2006)
	DisplayDateFormat = "Jan 2, 2006"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "weeklit-"
	BackupFileSuffix = ".db"

	// Pidfile constants
	PidfileName = "weeklit.pid"

	// Week storage constants
	MaxWeekWriteAttempts = 3
	DefaultHistoryLimit  = 10
	MaxHistoryLimit      = 100
	StatsSeriesLength    = 8
	MaxHabitTitleLength  = 100
)

// Server defaults
const (
	DefaultAddr            = ":5000"
	DefaultBasePath        = "/api"
	DefaultFrontendURL     = "http://localhost:5173"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)
