package main

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

func configureLogging(level, format string) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("Unknown log level ", level, ", using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
