package pipeline

import "errors"

// Build-time programmer errors, returned by a builder's terminal
// BuildLink call rather than deferred to a later Poll (see DESIGN.md's
// Open Question resolution on fail-fast builder validation).
var (
	// ErrMissingIngress is returned when a link requires exactly one
	// ingress and none was supplied.
	ErrMissingIngress = errors.New("pipeline: missing ingress stream")
	// ErrTooManyIngresses is returned when a link that accepts exactly one
	// ingress was given more than one.
	ErrTooManyIngresses = errors.New("pipeline: too many ingress streams")
	// ErrMissingIngresses is returned when a fan-in link (join) was given
	// zero ingress streams.
	ErrMissingIngresses = errors.New("pipeline: missing ingress streams")
	// ErrMissingProcessor is returned when a link that requires a
	// Processor was not given one.
	ErrMissingProcessor = errors.New("pipeline: missing processor")
	// ErrMissingClassifier is returned when a classify link was not given
	// a Classifier.
	ErrMissingClassifier = errors.New("pipeline: missing classifier")
	// ErrMissingDispatcher is returned when a classify link was not given
	// a Dispatcher.
	ErrMissingDispatcher = errors.New("pipeline: missing dispatcher")
	// ErrMissingChannel is returned when an input-/output-channel link was
	// not given a channel endpoint.
	ErrMissingChannel = errors.New("pipeline: missing channel")
	// ErrInvalidCapacity is returned when a capacity option is < 1.
	ErrInvalidCapacity = errors.New("pipeline: capacity must be >= 1")
	// ErrInvalidEgressorCount is returned when num_egressors is < 1 for
	// classify, or < 2 for fork.
	ErrInvalidEgressorCount = errors.New("pipeline: invalid egressor count")
	// ErrAlreadyBuilt is returned by a second call to a builder's terminal
	// build method; builders are single-use.
	ErrAlreadyBuilt = errors.New("pipeline: builder already built")
)
