// Package deploy ships the document server's deployment descriptor.
package deploy

import _ "embed"

// Manifest is the raw docserver.yaml descriptor.
//
//go:embed docserver.yaml
var Manifest []byte
