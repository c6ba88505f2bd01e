package health

import "context"

// DatasetPinger checks company-directory availability.
type DatasetPinger interface {
	Ping(ctx context.Context) error
}

// CachePinger checks result-cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
