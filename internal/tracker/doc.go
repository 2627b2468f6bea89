// Package tracker is the plate tracking and session-lifecycle engine.
//
// One Engine goroutine owns the Registry. Per frame it asks the Detector for
// candidate boxes, lets the Resolver match them against live tracks by IoU
// (running OCR only for boxes that match nothing), then lets the Reaper close
// tracks that stayed unmatched for longer than the grace period. Closed tracks
// with enough dwell leave the package as immutable values through SessionSink;
// nothing outside the loop ever holds a pointer into the Registry.
package tracker
