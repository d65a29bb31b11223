// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	"time"
)

// logTime returns a function that will log the elapsed time since logTime
// was called. Used to report per-phase durations of the pipeline.
// Example usage:
//   defer logTime("classify")()
func logTime(name string) func() {
	start := time.Now()
	return func() {
		log.Debugf("%s: %s", name, time.Since(start).String())
	}
}
