package custodian

import "time"

// Config holds configuration for the Custodian engine.
type Config struct {
	// AuditBuffer is the size of the asynchronous audit write buffer.
	// Defaults to 256.
	AuditBuffer int `json:"audit_buffer,omitempty"`

	// AuditWriteTimeout bounds each audit store write. Defaults to 5s.
	AuditWriteTimeout time.Duration `json:"audit_write_timeout,omitempty"`

	// CacheTTL is the time-to-live for cached decisions when a cache is
	// configured. Zero means decisions are never cached: every check reads
	// grants fresh, so a permission change is visible on the next request.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AuditBuffer:       256,
		AuditWriteTimeout: 5 * time.Second,
	}
}
