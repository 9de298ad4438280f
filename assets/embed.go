// Package assets holds the static files served under /assets/.
// Run "go run ./cmd/bazar css" to rebuild css/output.css.
package assets

import "embed"

//go:embed css/output.css
var AssetsFS embed.FS
