// Package logging configures the process-wide logrus logger used
// throughout the module, matching the level/formatter setup style the
// teacher's CLI tooling wires at startup.
package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/corinnegroth/federate-core/config"
)

// Configure applies cfg to logger, setting its level and formatter.
func Configure(logger *logrus.Logger, cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", cfg.Level)
	}
	logger.SetLevel(level)

	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
