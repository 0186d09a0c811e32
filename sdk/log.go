package sdk

import "github.com/rs/zerolog"

// Logger is the host console. Contract events go through it as short pipe lines.
type Logger interface {
	Log(msg string)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(msg string)

func (f LoggerFunc) Log(msg string) { f(msg) }

// NopLogger drops everything.
var NopLogger Logger = LoggerFunc(func(string) {})

type zeroLogger struct {
	logger zerolog.Logger
}

// NewZeroLogger writes contract events through a zerolog logger so off-chain hosts get
// structured output with the raw event line in the "event" field.
// Example payload: sdk.NewZeroLogger(zerolog.New(os.Stdout))
func NewZeroLogger(logger zerolog.Logger) Logger {
	return &zeroLogger{logger: logger.With().Str("component", "contract").Logger()}
}

func (z *zeroLogger) Log(msg string) {
	z.logger.Info().Str("event", msg).Msg("contract event")
}

// RecordingLogger keeps every line in memory, tests read Lines afterwards.
type RecordingLogger struct {
	Lines []string
}

func (r *RecordingLogger) Log(msg string) {
	r.Lines = append(r.Lines, msg)
}
