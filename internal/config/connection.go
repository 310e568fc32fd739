package config

import (
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/keyring"
	"github.com/julianstephens/weeklit/internal/storage/postgres"
)

var keyringGet = keyring.GetConnectionString

// ErrNoConnection is returned when a networked driver has no connection
// string from any source.
var ErrNoConnection = stderrors.New("no database connection string configured")

// ResolveConnection returns the connection string for the configured
// driver: the SQLite path, or for postgres and mongo the first of the
// config file, WEEKLIT_DB_CONNECTION (or MONGO_URI) and the OS keyring.
// Passwords are refused in postgres URLs read from the config file.
func (c *Config) ResolveConnection() (string, error) {
	driver := c.Database.Driver
	if driver == constants.DriverSQLite {
		return c.Database.Path, nil
	}

	if c.Database.URL != "" {
		if driver == constants.DriverPostgres && !c.Database.fromEnv {
			if _, err := postgres.ValidateConnString(c.Database.URL); err != nil {
				if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
					return "", fmt.Errorf("%w; store it with 'weeklit keyring set' or %s instead",
						err, constants.EnvDBConnection)
				}
				return "", err
			}
		}
		return c.Database.URL, nil
	}

	connStr, err := keyringGet(driver)
	if err == nil {
		return connStr, nil
	}
	if stderrors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w for %s: set database.url, %s or use 'weeklit keyring set'",
			ErrNoConnection, driver, constants.EnvDBConnection)
	}
	return "", err
}
