package emailauth

import (
	"errors"

	"github.com/planora/emailauth/cache"
)

// ErrCacheUnavailable re-exports [cache.ErrUnavailable] so callers matching
// infrastructure faults do not need to import the cache package.
var ErrCacheUnavailable = cache.ErrUnavailable

// Infrastructure and wiring errors. Domain outcomes are never errors; they
// travel as [ErrorKind] values inside results.
var (
	// ErrServiceNotReady is returned when a Service method is called on an
	// instance missing a required collaborator (zero value, or partially
	// constructed outside the Builder).
	ErrServiceNotReady = errors.New("email auth service not initialized")
	// ErrNilUser is returned by the verification send path for a nil user.
	ErrNilUser = errors.New("nil user")
	// ErrBuilderReused is returned by Build on a Builder that already built.
	ErrBuilderReused = errors.New("builder already built")
	// ErrMissingCache is returned by Build when no cache backend was wired.
	ErrMissingCache = errors.New("cache backend required")
	// ErrMissingEmailSender is returned by Build without an email sender.
	ErrMissingEmailSender = errors.New("email sender required")
	// ErrMissingUserProvider is returned by Build without a user provider.
	ErrMissingUserProvider = errors.New("user provider required")
)
