// Package migrations embeds the SQL schema files for the signup store.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file, named NNNNNN_name.{up,down}.sql.
//
//go:embed *.sql
var FS embed.FS
