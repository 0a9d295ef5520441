package common

import "fmt"

// ConfigurationError reports invalid chunking parameters or missing
// required credentials. It is fatal and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// LoadError reports a source file that could not be read or parsed.
// The offending file is skipped; the pipeline continues.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExtractionError reports a reasoning-service transport failure or a
// response that failed structural validation after retries. The chunk is
// skipped; the pipeline continues.
type ExtractionError struct {
	Source        string
	SequenceIndex int
	Err           error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s chunk %d: %v", e.Source, e.SequenceIndex, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// WriteError reports a store write that failed after retries. It carries
// how much of the batch was not persisted so a re-run can be targeted.
type WriteError struct {
	EntitiesLost      int
	RelationshipsLost int
	Err               error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf(
		"write failed, %d entities and %d relationships not persisted: %v",
		e.EntitiesLost, e.RelationshipsLost, e.Err,
	)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConnectionError reports a failure to establish the shared store
// connection. It is fatal at the point of first use.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to graph store at %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
