package app

import (
	"crypto/rand"
	"io"
	"log/slog"
	"time"
)

// Option configures the services built by this package.
type Option func(*options)

type options struct {
	now          func() time.Time
	logger       *slog.Logger
	codeGen      func() (string, error)
	codeAttempts int
}

func defaultOptions() options {
	return options{
		now:          func() time.Time { return time.Now().UTC() },
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		codeGen:      GenerateClassCode,
		codeAttempts: 5,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(o *options) { o.codeGen = gen }
}

// WithCodeAttempts bounds how many codes Create tries before giving up.
func WithCodeAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.codeAttempts = n
		}
	}
}

const (
	classCodeLength   = 6
	classCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateClassCode returns a random 6-character uppercase alphanumeric code.
func GenerateClassCode() (string, error) {
	return classCodeFrom(rand.Reader)
}

// classCodeFrom skips bytes at or above the largest multiple of the
// alphabet size so every character is equally likely.
func classCodeFrom(r io.Reader) (string, error) {
	const limit = 256 - 256%len(classCodeAlphabet)
	code := make([]byte, 0, classCodeLength)
	buf := make([]byte, classCodeLength)
	for len(code) < classCodeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, classCodeAlphabet[int(b)%len(classCodeAlphabet)])
			if len(code) == classCodeLength {
				break
			}
		}
	}
	return string(code), nil
}
