package program

import "timingc/clog"

// logger is the package-level structured logger used to record
// construction-time rejections. It defaults to a discarding logger;
// callers that want visibility into rejected factory calls install their
// own with SetLogger.
var logger = clog.Discard

// SetLogger installs the logger used for factory construction-time
// rejection diagnostics. Passing nil reverts to discarding.
func SetLogger(l *clog.Logger) {
	logger = clog.Use(l)
}
