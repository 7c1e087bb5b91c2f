// Package plexuslog hands out component-prefixed standard-library loggers.
// Every subsystem — storage, router, enrichment registry, spec loader —
// gets its own *log.Logger via New rather than reaching for log.Printf
// directly, so log lines are attributable without pulling in a structured
// logging dependency the teacher never used.
package plexuslog

import (
	"io"
	"log"
	"os"
)

// Output is where every logger created by New writes to. Tests may swap
// this for an io.Discard or a buffer before calling New.
var Output io.Writer = os.Stderr

// New returns a logger prefixed with "[component] ", matching the style
// used across the storage and decay packages.
func New(component string) *log.Logger {
	return log.New(Output, "["+component+"] ", log.LstdFlags)
}
