// Package keyring stores database connection strings in the OS keyring, one
// entry per store driver.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/weeklit/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are stored for a driver
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func user(driver string) string {
	return constants.DefaultKeyringUser + "/" + driver
}

// GetConnectionString retrieves the connection string stored for driver.
func GetConnectionString(driver string) (string, error) {
	connStr, err := keyring.Get(constants.AppName, user(driver))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

// SetConnectionString stores connStr for driver.
func SetConnectionString(driver, connStr string) error {
	if driver == "" {
		return errors.New("driver cannot be empty")
	}
	if connStr == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(constants.AppName, user(driver), connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func DeleteConnectionString(driver string) error {
	err := keyring.Delete(constants.AppName, user(driver))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort check of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
