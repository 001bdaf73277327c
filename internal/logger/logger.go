// Package logger builds the logrus logger shared by every component.
package logger

import (
	"os"

	"github.com/rs-labo46/ec-backoffice/internal/config"

	log "github.com/sirupsen/logrus"
)

func New(cfg config.Config) *log.Logger {
	l := log.New()
	l.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	l.SetLevel(level)

	if cfg.LogFormat == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return l
}
