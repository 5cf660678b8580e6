// Package otp drives entry of a one-time code: digit filtering, automatic
// submission, the expiry countdown and resending.
//
//	AwaitingInput --6 digits--> Submitting --ok--> Verified
//	      ^                          \--error--> Rejected
//	      \------------next edit-----------------/
package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	CodeLength = 6
	DefaultTTL = 600 * time.Second
)

var (
	ErrIncompleteCode    = fmt.Errorf("code must be %d digits", CodeLength)
	ErrResendUnavailable = errors.New("resend is not available yet")
	ErrSubmitting        = errors.New("verification already in progress")
	ErrAlreadyVerified   = errors.New("code already verified")
)

type Phase int

const (
	PhaseAwaitingInput Phase = iota
	PhaseSubmitting
	PhaseVerified
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseVerified:
		return "verified"
	case PhaseRejected:
		return "rejected"
	default:
		return "awaiting input"
	}
}

// VerifyFunc checks a complete code with the server.
type VerifyFunc func(ctx context.Context, code string) error

// ResendFunc asks the server for a new code and returns its message.
type ResendFunc func(ctx context.Context) (string, error)

// Clock makes the ticker that drives Run.
type Clock interface {
	NewTicker(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Snapshot struct {
	Phase     Phase
	Code      string
	Remaining time.Duration
	CanResend bool
	Err       error
}

type Flow struct {
	verify VerifyFunc
	resend ResendFunc
	ttl    time.Duration
	clock  Clock

	mu        sync.Mutex
	phase     Phase
	code      string
	remaining time.Duration
	canResend bool
	resending bool
	err       error
}

type Option func(*Flow)

// WithTTL sets the countdown length. Values below one second are ignored.
func WithTTL(d time.Duration) Option {
	return func(f *Flow) {
		if d >= time.Second {
			f.ttl = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(f *Flow) { f.clock = c }
}

func New(verify VerifyFunc, resend ResendFunc, opts ...Option) *Flow {
	f := &Flow{verify: verify, resend: resend, ttl: DefaultTTL, clock: realClock{}}
	for _, o := range opts {
		o(f)
	}
	f.remaining = f.ttl
	return f
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == CodeLength {
				break
			}
		}
	}
	return b.String()
}

// Input replaces the buffer with the digits of text, truncated to
// CodeLength. Reaching exactly CodeLength digits submits the code and
// returns the verification result. Edits while a verification is running or
// after success are ignored.
func (f *Flow) Input(ctx context.Context, text string) error {
	f.mu.Lock()
	switch f.phase {
	case PhaseSubmitting, PhaseVerified:
		f.mu.Unlock()
		return nil
	case PhaseRejected:
		f.phase = PhaseAwaitingInput
		f.err = nil
	}
	f.code = digits(text)
	complete := len(f.code) == CodeLength
	f.mu.Unlock()

	if !complete {
		return nil
	}
	return f.Submit(ctx)
}

// Submit verifies the buffered code. Any failure clears the buffer and
// leaves the flow Rejected.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch f.phase {
	case PhaseSubmitting:
		f.mu.Unlock()
		return ErrSubmitting
	case PhaseVerified:
		f.mu.Unlock()
		return ErrAlreadyVerified
	}
	if len(f.code) != CodeLength {
		f.mu.Unlock()
		return ErrIncompleteCode
	}
	code := f.code
	f.phase = PhaseSubmitting
	f.err = nil
	f.mu.Unlock()

	err := f.verify(ctx, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.phase = PhaseRejected
		f.code = ""
		f.err = err
		return err
	}
	f.phase = PhaseVerified
	return nil
}

// Tick advances the countdown by one second. Resending becomes available
// when it reaches zero.
func (f *Flow) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.remaining <= 0 {
		return
	}
	f.remaining -= time.Second
	if f.remaining <= 0 {
		f.remaining = 0
		f.canResend = true
	}
}

// Run ticks the countdown every second until ctx is done or the code is
// verified.
func (f *Flow) Run(ctx context.Context) {
	c, stop := f.clock.NewTicker(time.Second)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c:
			f.Tick()
			if f.Snapshot().Phase == PhaseVerified {
				return
			}
		}
	}
}

// Resend requests a new code once the countdown has run out, then restarts
// the countdown with an empty buffer.
func (f *Flow) Resend(ctx context.Context) (string, error) {
	f.mu.Lock()
	if !f.canResend || f.resending {
		f.mu.Unlock()
		return "", ErrResendUnavailable
	}
	switch f.phase {
	case PhaseSubmitting:
		f.mu.Unlock()
		return "", ErrSubmitting
	case PhaseVerified:
		f.mu.Unlock()
		return "", ErrAlreadyVerified
	}
	f.resending = true
	f.mu.Unlock()

	msg, err := f.resend(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.resending = false
	if err != nil {
		f.err = err
		return "", err
	}
	f.remaining = f.ttl
	f.canResend = false
	f.code = ""
	f.phase = PhaseAwaitingInput
	f.err = nil
	return msg, nil
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Phase:     f.phase,
		Code:      f.code,
		Remaining: f.remaining,
		CanResend: f.canResend,
		Err:       f.err,
	}
}

// FormatRemaining renders the countdown as m:ss.
func (f *Flow) FormatRemaining() string {
	return FormatDuration(f.Snapshot().Remaining)
}

func FormatDuration(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
