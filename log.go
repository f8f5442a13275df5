package smmap

import "github.com/sirupsen/logrus"

// logger is the package-wide diagnostic logger. It only ever logs
// recoverable, caller-visible conditions: a leaked SlidingBuffer, the
// manager falling back to an aggressive collection pass after a mapping
// attempt failed, or a failure to unmap an evicted region. Nothing in this
// package logs on the hot path.
var logger = logrus.StandardLogger()

// SetLogger redirects smmap's diagnostic logging to l. Passing nil
// restores the default, which logs through logrus's standard logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		logger = logrus.StandardLogger()
		return
	}
	logger = l
}
