package emailauth

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/planora/emailauth/cache"
	"github.com/planora/emailauth/internal/ratelimit"
	"github.com/planora/emailauth/internal/token"
)

// Builder wires a [Service]. Construction is allocation-only; no I/O happens
// until the first flow call.
type Builder struct {
	config Config
	cache  cache.Store
	users  UserProvider
	sender EmailSender
	sink   AuditSink

	built bool
}

// New starts a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis backs the service with a Redis cache over the given client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.cache = cache.NewRedisStore(client)
	return b
}

// WithCache backs the service with an arbitrary [cache.Store].
func (b *Builder) WithCache(store cache.Store) *Builder {
	b.cache = store
	return b
}

// WithUserProvider sets the persistence boundary.
func (b *Builder) WithUserProvider(users UserProvider) *Builder {
	b.users = users
	return b
}

// WithEmailSender sets the delivery capability.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.sender = sender
	return b
}

// WithAuditSink sets the audit destination. Ignored unless audit is enabled
// in the config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// Build validates the configuration, checks that every required collaborator
// is wired, and assembles the Service. A Builder builds once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, ErrBuilderReused
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if b.cache == nil {
		return nil, ErrMissingCache
	}
	if b.sender == nil {
		return nil, ErrMissingEmailSender
	}
	if b.users == nil {
		return nil, ErrMissingUserProvider
	}
	b.built = true

	prefix := b.config.Cache.KeyPrefix
	return &Service{
		config:  b.config,
		tokens:  token.NewManager(b.cache, prefix),
		limiter: ratelimit.NewLimiter(b.cache, prefix),
		users:   b.users,
		sender:  b.sender,
		audit:   newAuditDispatcher(b.config.Audit, b.sink),
		metrics: newMetrics(),
	}, nil
}
