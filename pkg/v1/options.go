package v1

import "github.com/rs/zerolog"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	scope           string
	directionMethod string
	log             zerolog.Logger
}

// WithScope forces a specific scope (global or project).
func WithScope(scope string) Option {
	return func(c *clientConfig) {
		c.scope = scope
	}
}

// WithDirectionMethod overrides the configured bias direction method
// (single, sum or pca).
func WithDirectionMethod(method string) Option {
	return func(c *clientConfig) {
		c.directionMethod = method
	}
}

// WithLogger sets the logger used by all operations.
func WithLogger(log zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.log = log
	}
}
