//go:build !windows

package logging

import logger "github.com/d2r2/go-logger"

func New(pkg string) Logger {
	return logger.NewPackageLogger(pkg, logger.InfoLevel)
}

// Init lowers go-i2c bus logging to info.
func Init() {
	logger.ChangePackageLogLevel("i2c", logger.InfoLevel)
}

func Debug(pkgs ...string) {
	for _, p := range pkgs {
		logger.ChangePackageLogLevel(p, logger.DebugLevel)
	}
}

func Finalize() {
	logger.FinalizeLogger()
}
