package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/weeklit/internal/cli"
	"github.com/julianstephens/weeklit/internal/constants"
	"github.com/julianstephens/weeklit/internal/keyring"
	"github.com/julianstephens/weeklit/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a connection string in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	Status KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
}

// DriverFlag selects which driver's entry a keyring command works on. It
// defaults to the configured driver.
type DriverFlag struct {
	Driver string `help:"Store driver the entry belongs to (postgres or mongo)." enum:",postgres,mongo" default:""`
}

func (f DriverFlag) resolve(ctx *cli.Context) (string, error) {
	driver := f.Driver
	if driver == "" {
		driver = ctx.Config.Database.Driver
	}
	if driver != constants.DriverPostgres && driver != constants.DriverMongo {
		return "", fmt.Errorf("the %s driver does not use a connection string; pass --driver postgres or --driver mongo", driver)
	}
	return driver, nil
}

type KeyringSetCmd struct {
	DriverFlag
	ConnectionString string `arg:"" help:"Connection string to store in the keyring."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	driver, err := cmd.resolve(ctx)
	if err != nil {
		return err
	}
	if cli.DriverFor(cmd.ConnectionString) != driver {
		return fmt.Errorf("connection string must be a valid %s connection string", driver)
	}

	if driver == constants.DriverPostgres {
		if _, err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.SetConnectionString(driver, cmd.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	ctx.Printf("✓ %s connection string stored successfully in OS keyring\n", driver)
	return nil
}

type KeyringGetCmd struct {
	DriverFlag
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	driver, err := cmd.resolve(ctx)
	if err != nil {
		return err
	}
	connStr, err := keyring.GetConnectionString(driver)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s connection string found in keyring. Use 'weeklit keyring set' to store one", driver)
		}
		return fmt.Errorf("failed to retrieve connection string from keyring: %w", err)
	}

	ctx.Println("Connection string retrieved from keyring:")
	ctx.Println(maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct {
	DriverFlag
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	driver, err := cmd.resolve(ctx)
	if err != nil {
		return err
	}
	if err := keyring.DeleteConnectionString(driver); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s connection string found in keyring", driver)
		}
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	ctx.Printf("✓ %s connection string deleted from OS keyring\n", driver)
	return nil
}

type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")
	for _, driver := range []string{constants.DriverPostgres, constants.DriverMongo} {
		_, err := keyring.GetConnectionString(driver)
		switch {
		case err == nil:
			ctx.Printf("✓ %s connection string is stored in keyring\n", driver)
		case errors.Is(err, keyring.ErrNotFound):
			ctx.Printf("ℹ No %s connection string stored in keyring\n", driver)
		default:
			ctx.Printf("❌ %s: %v\n", driver, err)
		}
	}
	return nil
}

// maskPassword hides the password of a URL or key=value connection string.
func maskPassword(connStr string) string {
	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return "****"
		}
		return u.Redacted()
	}

	parts := strings.Fields(connStr)
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}
