package health

import "context"

// Pinger checks search backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyChecker reports whether the search client finished initialization.
type ReadyChecker interface {
	Ready() bool
}

// Backend is what the health service needs from the search client.
type Backend interface {
	Pinger
	ReadyChecker
	ProviderName() string
}
