//go:build !nostatic

package main

import _ "github.com/Guliveer/hostsnap/internal/plugins/builtin"
