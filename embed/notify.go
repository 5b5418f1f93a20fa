package embed

import (
	"log/slog"

	"github.com/glimte/mmate-embed/contracts"
)

// ErrorNotifier presents errors to the host. callback is the host's own error
// callback and may be nil
type ErrorNotifier interface {
	Notify(err error, callback func(error), kind contracts.ErrorKind)
}

// NotifyFunc is a function adapter for ErrorNotifier
type NotifyFunc func(err error, callback func(error), kind contracts.ErrorKind)

// Notify implements ErrorNotifier
func (f NotifyFunc) Notify(err error, callback func(error), kind contracts.ErrorKind) {
	f(err, callback, kind)
}

// LogNotifier logs every error and forwards it to the host callback when one is set
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements ErrorNotifier
func (n LogNotifier) Notify(err error, callback func(error), kind contracts.ErrorKind) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("embed error", "kind", kind, "error", err)

	if callback != nil {
		callback(err)
	}
}
