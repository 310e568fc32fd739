// Package migrations embeds the SQL schema files for each SQL driver.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
