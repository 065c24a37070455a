// Package timeutil provides human-readable relative time formatting.
//
// # Usage
//
//	timeutil.Relative(time.Now().Add(-5*time.Minute), time.Now()) // "5 minutes ago"
//	timeutil.Relative(time.Now().Add(2*time.Hour), time.Now())    // "2 hours from now"
//	timeutil.Since("2024-03-01T10:00:00Z")                         // relative to time.Now()
package timeutil
