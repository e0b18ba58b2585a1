package manager

import "github.com/rs/zerolog"

// LogPublisher writes every event as a structured log line. Rejections and failures are
// logged at warn, the rest at debug.
type LogPublisher struct {
	Logger zerolog.Logger
}

func NewLogPublisher(l zerolog.Logger) LogPublisher { return LogPublisher{Logger: l} }

func (p LogPublisher) Publish(e Event) {
	ev := p.Logger.Debug()
	switch e.Name {
	case EventRejected, EventLoadFailed, EventUnloadFailed:
		ev = p.Logger.Warn()
	case EventSwapDone, EventOptimize:
		ev = p.Logger.Info()
	}
	ev.Str("event", e.Name).Str("model", e.ModelID).Fields(e.Fields).Msg("manager event")
}
