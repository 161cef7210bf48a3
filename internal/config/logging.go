package config

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ParseLogLevel parses a logrus level name. An empty name means info.
func ParseLogLevel(level string) (log.Level, error) {
	if strings.TrimSpace(level) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log.level %q: %w", level, err)
	}
	return lvl, nil
}

// ApplyLogging configures the standard logrus logger from c.
func ApplyLogging(c LogConfig) error {
	lvl, err := ParseLogLevel(c.Level)
	if err != nil {
		return err
	}

	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	log.SetLevel(lvl)
	return nil
}
