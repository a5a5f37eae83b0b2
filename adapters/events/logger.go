package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// LogrusAdapter routes watermill's internal logging into logrus
type LogrusAdapter struct {
	log logrus.FieldLogger
}

// NewLogrusAdapter wraps a logrus logger for watermill
func NewLogrusAdapter(log logrus.FieldLogger) watermill.LoggerAdapter {
	return &LogrusAdapter{log: log}
}

func (a *LogrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.WithFields(logrus.Fields(fields)).WithError(err).Error(msg)
}

func (a *LogrusAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.WithFields(logrus.Fields(fields)).Info(msg)
}

func (a *LogrusAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.WithFields(logrus.Fields(fields)).Debug(msg)
}

// Trace is folded into debug; logrus.FieldLogger has no trace level
func (a *LogrusAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (a *LogrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LogrusAdapter{log: a.log.WithFields(logrus.Fields(fields))}
}
