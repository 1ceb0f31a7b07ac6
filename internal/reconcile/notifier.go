package reconcile

import "go.uber.org/zap"

type NotifyKind string

const (
	NotifyInfo  NotifyKind = "info"
	NotifyError NotifyKind = "error"
)

// Notifier delivers operator-facing messages (toasts, status lines, logs).
type Notifier interface {
	Notify(kind NotifyKind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind NotifyKind, message string)

func (f NotifierFunc) Notify(kind NotifyKind, message string) { f(kind, message) }

type nopNotifier struct{}

func (nopNotifier) Notify(NotifyKind, string) {}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("lines")}
}

func (n *LogNotifier) Notify(kind NotifyKind, message string) {
	if kind == NotifyError {
		n.log.Warn(message, zap.String("kind", string(kind)))
		return
	}
	n.log.Info(message, zap.String("kind", string(kind)))
}

// MultiNotifier fans a notification out to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(kind NotifyKind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}
