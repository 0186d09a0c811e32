package badgerstate

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// BadgerLogger routes badger's printf style logging into zerolog.
type BadgerLogger struct {
	logger zerolog.Logger
}

func NewBadgerLogger(logger zerolog.Logger) *BadgerLogger {
	return &BadgerLogger{
		logger: logger.With().Str("component", "badger").Logger(),
	}
}

func (b *BadgerLogger) Errorf(msg string, args ...any) {
	b.logger.Error().Msg(trim(msg, args))
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.logger.Warn().Msg(trim(msg, args))
}

func (b *BadgerLogger) Infof(msg string, args ...any) {
	b.logger.Info().Msg(trim(msg, args))
}

func (b *BadgerLogger) Debugf(msg string, args ...any) {
	b.logger.Debug().Msg(trim(msg, args))
}

// badger ends most lines with a newline
func trim(msg string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(msg, args...))
}
