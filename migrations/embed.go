package migrations

import "embed"

// FS holds the activity log schema, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
