// Package appfs embeds the static assets shipped with the binaries:
// database migrations and email templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
