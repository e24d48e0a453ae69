package agent

// DefaultMaxIterations is the hard ceiling on loop iterations.
const DefaultMaxIterations = 10

// Option is a function that can be used to modify the behavior of the Agent Config.
type Option func(*Config)

type Config struct {
	// Name identifies the agent in logs and callbacks.
	Name string

	// MaxIterations bounds the decision loop.
	MaxIterations int

	// CallbackHandler receives loop events.
	CallbackHandler Callback
}

func newConfig(opts ...Option) Config {
	cfg := Config{
		Name:            "sqlagent",
		MaxIterations:   DefaultMaxIterations,
		CallbackHandler: NewNoopCallback(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithName sets the agent name.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithMaxIterations overrides the iteration ceiling.
func WithMaxIterations(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxIterations = n
		}
	}
}

// WithCallback sets the callback handler.
func WithCallback(cb Callback) Option {
	return func(c *Config) {
		if cb != nil {
			c.CallbackHandler = cb
		}
	}
}
