package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

func newLogger(out io.Writer, level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	logger.SetReportCaller(false)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// debugLogger routes library Printf output to the debug level.
type debugLogger struct {
	*logrus.Entry
}

func (l debugLogger) Printf(format string, v ...interface{}) {
	l.Debugf(format, v...)
}
