package custodian

import (
	"log/slog"
	"time"

	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/plugin"
	"github.com/labfoundry/custodian/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithAuditRecorder sets an externally managed audit recorder. Without this
// option the engine builds its own recorder over the store and closes it on
// Stop.
func WithAuditRecorder(r *audit.Recorder) Option { return func(e *Engine) { e.audit = r } }

// WithCache sets the decision cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithClock sets the time source used for validity windows. Tests use this
// to pin the evaluation instant.
func WithClock(clock func() time.Time) Option { return func(e *Engine) { e.clock = clock } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(p)
	}
}
