package encio

import "go.uber.org/zap"

// Warnings is where warnings are sent to.
// In many cases mpk will continue to operate with e.g. incorrectly implemented io.Writers or malformed struct tags,
// however it shouldn't silently put up with things that seem worrying.
// It discards everything until replaced, e.g. with zap.NewDevelopment().
var Warnings = zap.NewNop()

// SetWarnings replaces Warnings, returning a function that restores the previous logger.
// A nil logger discards warnings.
func SetWarnings(logger *zap.Logger) (restore func()) {
	prev := Warnings
	if logger == nil {
		logger = zap.NewNop()
	}
	Warnings = logger
	return func() { Warnings = prev }
}
