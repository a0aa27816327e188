// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"sync"
	"sync/atomic"
)

// seenSet is the global deduplication set shared by all producers in a run.
// It grows for the run's lifetime and is never pruned; memory is bounded by
// the number of distinct voicings found, not by the raw search space.
//
// Thread Safety: Safe for concurrent use.
type seenSet struct {
	keys sync.Map
	size atomic.Int64
}

// add inserts the key if absent and reports whether it was new. The insert
// is atomic, so two producers reconstructing the same voicing concurrently
// agree on exactly one winner.
func (s *seenSet) add(key string) bool {
	if _, loaded := s.keys.LoadOrStore(key, struct{}{}); loaded {
		return false
	}
	s.size.Add(1)
	return true
}

// len returns the number of distinct keys seen so far.
func (s *seenSet) len() int64 {
	return s.size.Load()
}
