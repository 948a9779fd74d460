// Package web embeds the browser UI served by the billing API.
package web

import "embed"

//go:embed index.html static
var Assets embed.FS
