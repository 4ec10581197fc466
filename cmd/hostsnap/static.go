//go:build !nostatic

package main

// Built-in plugins register themselves with the static registry.
import _ "github.com/Guliveer/hostsnap/internal/plugins/builtin"
