package dicomlog

import (
	"sync/atomic"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// level sets log verbosity. The larger the value, the more verbose.  Setting it
// to -1 disables logging completely.
var level = int32(0)

// SetLevel sets log verbosity. The larger the value, the more verbose. Setting
// it to -1 disables logging completely. Thread safe.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

// Level returns the current log level. The larger the value, the more verbose.
// Thread safe.
func Level() int {
	return int(atomic.LoadInt32(&level))
}

// Vprintf is shorthand for "if level > Level { log.Printf(...) }".
func Vprintf(l int, format string, args ...interface{}) {
	if Level() >= l {
		logrus.Printf(format, args...)
	}
}

// Warnf 记录可以容忍的异常（如值解码时丢弃了尾部字节），level为-1时不输出
func Warnf(format string, args ...interface{}) {
	if Level() >= 0 {
		logrus.Warnf(format, args...)
	}
}

// Config selects where log output goes. An empty Logfile keeps logrus on
// stderr.
type Config struct {
	Logfile string `yaml:"logfile"`
	MaxSize int    `yaml:"max_log_size"` // megabytes
	MaxAge  int    `yaml:"max_log_age"`  // days
	Level   int    `yaml:"level"`
}

// Setup applies the verbosity level and, when a log file is named, sends
// logrus output to a rotating file.
func (c *Config) Setup() {
	if c == nil {
		return
	}
	SetLevel(c.Level)
	if c.Logfile == "" {
		return
	}
	logrus.SetOutput(&lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	})
	Vprintf(1, "dicomlog: sending log messages to %s", c.Logfile)
}
