// Package migrations embeds the SQL schema for the preference store.
package migrations

import "embed"

// FS holds the up and down migrations, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
