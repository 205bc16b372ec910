package appfs

import "embed"

// FS holds the SQL migrations and email templates shipped with the binary.
//
//go:embed migrations/*.sql templates/email/* common-passwords.txt.gz
var FS embed.FS
