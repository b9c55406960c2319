// Package docs embeds the HTTP API description served at /docs.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
