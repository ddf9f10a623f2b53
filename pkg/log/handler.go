package log

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/cockroachdb/errors"

	regerrors "github.com/YuminosukeSato/regpipe/pkg/errors"
)

// ErrFmtHandler decorates a slog.Handler. When a record carries an "error"
// attribute it appends the cockroachdb/errors stack as "stacktrace" and the
// regpipe error type (ConfigError, ValueError, ...) as "error.type".
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with an ErrFmtHandler.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		err, _ = attr.Value.Any().(error)
		return false
	})
	if err != nil {
		if st := extractStacktrace(err); st != "" {
			r.AddAttrs(slog.String(StacktraceAttrKey, st))
		}
		if kind := errorType(err); kind != "" {
			r.AddAttrs(slog.String(ErrorTypeKey, kind))
		}
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// extractStacktrace returns the first safe detail recorded by
// errors.WithStack, which is the formatted stack.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}

var regerrorsPkg = reflect.TypeOf(regerrors.ConfigError{}).PkgPath()

// errorType returns the name of the outermost pkg/errors type in err's
// chain, or "" when the chain holds none.
func errorType(err error) string {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		t := reflect.TypeOf(e)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.PkgPath() == regerrorsPkg {
			return t.Name()
		}
	}
	return ""
}
