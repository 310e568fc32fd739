package constants

import "time"

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Environment variable names
const (
	EnvConfig       = "WEEKLIT_CONFIG"
	EnvTimezone     = "WEEKLIT_TIMEZONE"
	EnvAddr         = "WEEKLIT_ADDR"
	EnvPort         = "PORT"
	EnvFrontendURL  = "FRONTEND_URL"
	EnvDBDriver     = "WEEKLIT_DB_DRIVER"
	EnvDBPath       = "WEEKLIT_DB_PATH"
	EnvDBConnection = "WEEKLIT_DB_CONNECTION"
	EnvDBName       = "WEEKLIT_DB_NAME"
	EnvMongoURI     = "MONGO_URI"
	EnvLogLevel     = "WEEKLIT_LOG_LEVEL"
	EnvLogFormat    = "WEEKLIT_LOG_FORMAT"
)

// Default settings values
const (
	DefaultTimezone       = "Asia/Kolkata"
	DefaultHabitColor     = "#0ea5e9"
	DefaultMongoDatabase  = "weeklit"
	DefaultScheduleOffset = 5 * time.Minute
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)
