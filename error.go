package crumbz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Error is an application error that remembers the business context it was
// raised in. The snapshot is taken when the error is built and never
// changes afterwards.
//
// Domain error types hold an *Error and unwrap to it, so ContextOf and
// errors.As find the breadcrumbs:
//
//	type PaymentError struct {
//		Err    *crumbz.Error
//		Amount int
//	}
//
//	func (e *PaymentError) Error() string { return e.Err.Error() }
//	func (e *PaymentError) Unwrap() error { return e.Err }
type Error struct {
	msg    string
	cause  error
	crumbs Snapshot
	trace  []Frame

	// causeInMsg is set when msg already describes cause (Errorf with %w).
	causeInMsg bool
}

// Carrier is implemented by *Error. Other error types may implement it to
// expose breadcrumbs of their own.
type Carrier interface {
	error
	Context() Snapshot
}

// Option configures an Error during construction.
type Option func(*options)

type options struct {
	snapshot   Snapshot
	cause      error
	trace      bool
	traceDepth int
	traceSkip  int
	causeInMsg bool
}

// WithTrace captures the technical call stack. Off by default, since walking
// the stack is the expensive part of building an error.
func WithTrace() Option { return func(o *options) { o.trace = true } }

// WithTraceDepth captures the technical call stack, keeping at most n frames.
func WithTraceDepth(n int) Option {
	return func(o *options) {
		o.trace = true
		o.traceDepth = n
	}
}

// WithTraceSkip drops n extra frames from the top of the captured trace,
// for constructors wrapped in helpers. It does not enable tracing.
func WithTraceSkip(n int) Option { return func(o *options) { o.traceSkip = n } }

// WithSnapshot uses snap instead of the stack bound to the context.
// A nil snap is ignored.
func WithSnapshot(snap Snapshot) Option {
	return func(o *options) {
		if snap != nil {
			o.snapshot = snap.clone()
		}
	}
}

// WithCause sets the error returned by Unwrap.
func WithCause(err error) Option {
	return func(o *options) {
		o.cause = err
		o.causeInMsg = false
	}
}

// causeInMessage sets a cause the message already describes.
func causeInMessage(err error) Option {
	return func(o *options) {
		o.cause = err
		o.causeInMsg = true
	}
}

// New creates an error carrying the breadcrumbs currently bound to ctx.
func New(ctx context.Context, msg string, opts ...Option) *Error {
	return build(ctx, msg, nil, opts)
}

// Wrap creates an error around cause carrying the breadcrumbs currently
// bound to ctx. msg may be empty.
func Wrap(ctx context.Context, cause error, msg string, opts ...Option) *Error {
	return build(ctx, msg, cause, opts)
}

// Errorf formats the message with fmt.Errorf. A single %w verb becomes the
// cause; with several, the formatted error itself is the cause so every
// wrapped error stays reachable. Option values among args are applied like
// New's options and are not formatted.
func Errorf(ctx context.Context, format string, args ...any) *Error {
	crumbs := Current(ctx)

	var extra []Option
	fmtArgs := make([]any, 0, len(args))
	for _, arg := range args {
		if opt, ok := arg.(Option); ok {
			extra = append(extra, opt)
			continue
		}
		fmtArgs = append(fmtArgs, arg)
	}

	formatted := fmt.Errorf(format, fmtArgs...)
	var cause error
	switch u := formatted.(type) {
	case interface{ Unwrap() []error }:
		cause = formatted
	case interface{ Unwrap() error }:
		cause = u.Unwrap()
	}

	// Caller options come last and may override the snapshot or the cause.
	opts := []Option{WithSnapshot(crumbs)}
	if cause != nil {
		opts = append(opts, causeInMessage(cause))
	}
	opts = append(opts, extra...)

	return build(ctx, formatted.Error(), nil, opts)
}

// build is called directly by every exported constructor, so the trace skip
// below lands on the constructor's caller.
func build(ctx context.Context, msg string, cause error, opts []Option) *Error {
	// The snapshot comes first; nothing below may observe a later stack.
	crumbs := Current(ctx)

	o := options{cause: cause}
	for _, opt := range opts {
		opt(&o)
	}
	if o.snapshot != nil {
		crumbs = o.snapshot
	}

	e := &Error{
		msg:        msg,
		cause:      o.cause,
		crumbs:     crumbs,
		causeInMsg: o.causeInMsg,
	}
	if o.trace {
		// Skip build and the exported constructor.
		e.trace = captureTrace(2+o.traceSkip, o.traceDepth)
	}
	return e
}

// Error returns the description used as the first line of a render.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.causeInMsg:
		return e.msg
	case e.msg != "" && e.cause != nil:
		return e.msg + ": " + e.cause.Error()
	case e.msg != "":
		return e.msg
	case e.cause != nil:
		return e.cause.Error()
	default:
		return "error"
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Message returns the message without the cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.msg
}

// Context returns a copy of the captured breadcrumbs, oldest first.
// A nil *Error has an empty context.
func (e *Error) Context() Snapshot {
	if e == nil {
		return Snapshot{}
	}
	return e.crumbs.clone()
}

// HasTrace reports whether a technical trace was captured.
func (e *Error) HasTrace() bool { return e != nil && len(e.trace) > 0 }

// Trace returns the captured technical trace, most recent call first.
func (e *Error) Trace() []Frame {
	if e == nil || len(e.trace) == 0 {
		return nil
	}
	out := make([]Frame, len(e.trace))
	copy(out, e.trace)
	return out
}

// Render writes the description followed by sep and each breadcrumb,
// evaluated now, then a newline. The whole render reaches w in one write
// while w's lock is held. Write errors are returned unchanged.
func (e *Error) Render(w io.Writer, sep string) error {
	var buf bytes.Buffer
	e.appendContext(&buf, sep)
	buf.WriteByte('\n')

	unlock := lockSink(w)
	defer unlock()

	_, err := w.Write(buf.Bytes())
	return err
}

// Print renders to standard error with DefaultSeparator.
func (e *Error) Print() error {
	return e.Render(os.Stderr, DefaultSeparator)
}

func (e *Error) appendContext(buf *bytes.Buffer, sep string) {
	buf.WriteString(e.Error())
	if e == nil {
		return
	}
	for _, b := range e.crumbs {
		buf.WriteString(sep)
		buf.WriteString(b.String())
	}
}

// ContextOf returns the breadcrumbs of the first Carrier in err's chain.
func ContextOf(err error) (Snapshot, bool) {
	var c Carrier
	if !errors.As(err, &c) {
		return nil, false
	}
	return c.Context(), true
}

var _ Carrier = (*Error)(nil)
