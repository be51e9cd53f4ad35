package rules

import (
	_ "embed"
)

//go:embed default.yaml
var defaultDocument []byte

// Default returns the built-in rules.
func Default() Rules {
	r, err := Parse(defaultDocument)
	if err != nil {
		panic("rules: invalid built-in document: " + err.Error())
	}
	return r
}
