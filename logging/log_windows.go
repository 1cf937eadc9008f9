//go:build windows

package logging

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	loggers = make(map[string]*logrus.Logger)
)

func New(pkg string) Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	mu.Lock()
	loggers[pkg] = l
	mu.Unlock()
	return l.WithField("package", pkg)
}

// Init is a no-op, there is no go-i2c on windows.
func Init() {}

func Debug(pkgs ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range pkgs {
		if l, ok := loggers[p]; ok {
			l.SetLevel(logrus.DebugLevel)
		}
	}
}

func Finalize() {}
