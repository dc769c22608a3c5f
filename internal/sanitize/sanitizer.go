// Package sanitize strips executable markup from request payloads before any
// handler sees them.
package sanitize

import (
	"errors"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxDepth bounds how many containers may be nested inside a payload.
const DefaultMaxDepth = 64

// ErrDepthExceeded is returned when a payload nests deeper than the configured limit.
var ErrDepthExceeded = errors.New("payload nesting exceeds maximum depth")

// Sanitizer rewrites every string leaf of a decoded JSON value through an HTML
// policy. The policy is read-only once built, so a Sanitizer can be shared freely.
type Sanitizer struct {
	policy   *bluemonday.Policy
	maxDepth int
}

// Option customizes a Sanitizer.
type Option func(*Sanitizer)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(s *Sanitizer) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithPolicy replaces the default user-generated-content policy.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(s *Sanitizer) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// New returns a Sanitizer using bluemonday's UGC policy: safe formatting markup
// survives, scripts, event handlers and javascript: links do not.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		policy:   bluemonday.UGCPolicy(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxDepth reports the nesting limit.
func (s *Sanitizer) MaxDepth() int {
	return s.maxDepth
}

// String sanitizes a single string.
func (s *Sanitizer) String(in string) string {
	return s.policy.Sanitize(in)
}

// Sanitize walks v and returns it with every string leaf sanitized. Maps and
// slices are rewritten in place and keep their keys, length and order. Values
// of any other type, including json.Number, are returned untouched.
func (s *Sanitizer) Sanitize(v any) (any, error) {
	return s.walk(v, 0)
}

func (s *Sanitizer) walk(v any, depth int) (any, error) {
	switch t := v.(type) {
	case string:
		return s.String(t), nil
	case map[string]any:
		if depth >= s.maxDepth {
			return nil, ErrDepthExceeded
		}
		for key, child := range t {
			clean, err := s.walk(child, depth+1)
			if err != nil {
				return nil, err
			}
			t[key] = clean
		}
		return t, nil
	case []any:
		if depth >= s.maxDepth {
			return nil, ErrDepthExceeded
		}
		for i, child := range t {
			clean, err := s.walk(child, depth+1)
			if err != nil {
				return nil, err
			}
			t[i] = clean
		}
		return t, nil
	default:
		return v, nil
	}
}

// Values sanitizes every value of a query string or urlencoded form in place.
func (s *Sanitizer) Values(values url.Values) url.Values {
	for key, list := range values {
		for i, value := range list {
			list[i] = s.String(value)
		}
		values[key] = list
	}
	return values
}
