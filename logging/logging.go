// Package logging hands out per package loggers.
//
// go-logger writes to syslog which is not available on windows, so windows
// builds log through logrus instead. Both are raised to debug per package.
package logging

type Logger interface {
	Debugf(format string, args ...interface{})
}
