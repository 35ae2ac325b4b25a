// Package openapi embeds the API description and the Swagger UI page that
// renders it.
package openapi

import _ "embed"

//go:embed openapi.yaml
var YAML []byte

// DocsHTML loads Swagger UI from a CDN and points it at /openapi.yaml.
//
//go:embed docs.html
var DocsHTML []byte
