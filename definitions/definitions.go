// Package definitions embeds the default definitions of both tools.
package definitions

import (
	_ "embed"
)

// Archive2svn is the default archive import definition.
//
//go:embed archive2svn.yaml
var Archive2svn []byte

// Passwd2ldif is the default passwd/group export definition.
//
//go:embed passwd2ldif.yaml
var Passwd2ldif []byte
