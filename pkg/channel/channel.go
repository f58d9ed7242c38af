// Package channel dispatches named method calls to handlers and turns their
// results into success, error or not-implemented outcomes.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Name is the channel name the host runtime binds to.
const Name = "flutter_perf_monitor"

// Error codes carried by error outcomes.
const (
	CodeError       = "ERROR"
	CodeUnavailable = "UNAVAILABLE"
	CodeBadRequest  = "BAD_REQUEST"
)

// ErrNotImplemented is returned by Lookup for unknown methods.
var ErrNotImplemented = errors.New("method not implemented")

// Outcome is the kind of result a call produced.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeError          Outcome = "error"
	OutcomeNotImplemented Outcome = "notImplemented"
)

// Call is a method invocation.
type Call struct {
	Method string
	Args   map[string]any
}

// Result is the answer to a Call.
type Result struct {
	Outcome Outcome
	Value   any
	Code    string
	Message string
	Details any
}

// Success wraps a value.
func Success(v any) Result {
	return Result{Outcome: OutcomeSuccess, Value: v}
}

// Failure builds an error outcome.
func Failure(code, message string, details any) Result {
	return Result{Outcome: OutcomeError, Code: code, Message: message, Details: details}
}

// NotImplemented is the outcome for unknown methods.
func NotImplemented() Result {
	return Result{Outcome: OutcomeNotImplemented}
}

// CodedError lets a handler choose the error code of its failure.
type CodedError struct {
	Code    string
	Message string
	Details any
}

func (e *CodedError) Error() string {
	return e.Code + ": " + e.Message
}

// Handler answers one method.
type Handler func(ctx context.Context, call Call) (any, error)

// Channel holds the registered handlers.
type Channel struct {
	name   string
	logger *logrus.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates an empty channel.
func New(name string, logger *logrus.Logger) *Channel {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	return &Channel{
		name:     name,
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Register adds or replaces the handler for method.
func (c *Channel) Register(method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = h
}

// Unregister removes every handler.
func (c *Channel) Unregister() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = make(map[string]Handler)
}

// Methods returns the registered method names in sorted order.
func (c *Channel) Methods() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the handler for method or ErrNotImplemented.
func (c *Channel) Lookup(method string) (Handler, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, ok := c.handlers[method]
	if !ok {
		return nil, fmt.Errorf("%s: %w", method, ErrNotImplemented)
	}
	return h, nil
}

// Invoke runs the handler for call. Handler errors and panics become error
// outcomes; unknown methods become not-implemented outcomes.
func (c *Channel) Invoke(ctx context.Context, call Call) (res Result) {
	log := c.logger.WithFields(logrus.Fields{
		"channel": c.name,
		"method":  call.Method,
	})

	h, err := c.Lookup(call.Method)
	if err != nil {
		log.Debug("Method not implemented")
		return NotImplemented()
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Error in method call")
			res = Failure(CodeError, message(fmt.Sprint(r), call.Method), nil)
		}
	}()

	log.Debug("Invoking method")
	v, err := h(ctx, call)
	if err != nil {
		log.WithError(err).Error("Error in method call")
		var coded *CodedError
		if errors.As(err, &coded) {
			return Failure(coded.Code, message(coded.Message, call.Method), coded.Details)
		}
		return Failure(CodeError, message(err.Error(), call.Method), nil)
	}
	return Success(v)
}

// message never lets an error outcome go out without text.
func message(msg, method string) string {
	if msg == "" {
		return "error in method call: " + method
	}
	return msg
}
