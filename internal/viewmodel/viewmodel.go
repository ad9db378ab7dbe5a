// Package viewmodel holds per-page state and actions. Each view model calls
// the api modules, reshapes replies for display and reports outcomes through
// a Notifier. Rendering is left to the caller.
package viewmodel

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/oactl/internal/errors"
	"github.com/felixgeelhaar/oactl/internal/httpclient"
	"github.com/felixgeelhaar/oactl/internal/session"
)

// Notifier shows transient messages. It is the same contract the HTTP
// client uses for session expiry.
type Notifier = httpclient.Notifier

// Navigator moves to another route.
type Navigator = httpclient.Navigator

// Confirmer asks the user a yes/no question. A false answer with a nil
// error means the user declined.
type Confirmer interface {
	Confirm(title, message string) (bool, error)
}

// SessionStore is the part of *session.Store the view models write.
type SessionStore interface {
	User() session.User
	Set(user session.User, token string) error
	Clear() error
}

// Default pagination.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// fence numbers each load so a reply for a superseded request can be
// dropped, and cancels everything still in flight when the view closes.
type fence struct {
	mu     sync.Mutex
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

func newFence() *fence {
	ctx, cancel := context.WithCancel(context.Background())
	return &fence{ctx: ctx, cancel: cancel}
}

// next starts a generation. The returned context ends when parent does, when
// the view closes, or when done is called.
func (f *fence) next(parent context.Context) (ctx context.Context, gen uint64, done func(), err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ctx.Err() != nil {
		return nil, 0, nil, errors.New(errors.ErrCodeCancelled, "view closed")
	}
	f.gen++
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(f.ctx, cancel)
	return ctx, f.gen, func() {
		stop()
		cancel()
	}, nil
}

// current reports whether gen is still the latest load.
func (f *fence) current(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gen == f.gen
}

func (f *fence) closed() bool {
	return f.ctx.Err() != nil
}

func (f *fence) close() {
	f.cancel()
}

// messageOr returns err's message, or fallback when it has none.
func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// quiet reports errors the user should not be told about again: cancellation
// and session expiry, which the HTTP client already announced.
func quiet(err error) bool {
	return errors.IsKind(err, errors.KindCancelled) || errors.IsKind(err, errors.KindUnauthorized)
}

func validation(msg string) *errors.OAError {
	return errors.New(errors.ErrCodeValidation, msg)
}
