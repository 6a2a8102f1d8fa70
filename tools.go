//go:build tools

// Python bindings are generated with gopy, e.g. `gopy build -output=out -vm=python3 fuzzratio/pkg`
package tools

import (
	_ "github.com/go-python/gopy"
)
