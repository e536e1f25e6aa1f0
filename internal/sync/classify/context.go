package classify

import "time"

// ErrorContext carries per-operation metadata into classification. It is an
// immutable value built with chained With* calls; it is never persisted
// directly, only folded into diagnostics.
type ErrorContext struct {
	Operation     string
	ResourcePath  string
	SourceID      string
	ResponseTime  time.Duration
	ResponseSize  int64
	ServerType    string
	ServerVersion string
	Additional    map[string]string
}

// NewErrorContext creates a context for one failed operation, e.g.
// NewErrorContext("list_directory", "/shared/docs").
func NewErrorContext(operation, resourcePath string) ErrorContext {
	return ErrorContext{Operation: operation, ResourcePath: resourcePath}
}

// WithSourceID attaches the source identifier.
func (c ErrorContext) WithSourceID(id string) ErrorContext {
	c.SourceID = id
	return c
}

// WithResponseTime attaches how long the failing operation took.
func (c ErrorContext) WithResponseTime(d time.Duration) ErrorContext {
	c.ResponseTime = d
	return c
}

// WithResponseSize attaches the size of the (partial) response, if any.
func (c ErrorContext) WithResponseSize(n int64) ErrorContext {
	c.ResponseSize = n
	return c
}

// WithServer attaches server identification reported by the remote.
func (c ErrorContext) WithServer(serverType, version string) ErrorContext {
	c.ServerType = serverType
	c.ServerVersion = version
	return c
}

// With attaches an arbitrary key/value pair. The underlying map is copied so
// derived contexts never alias each other.
func (c ErrorContext) With(key, value string) ErrorContext {
	next := make(map[string]string, len(c.Additional)+1)
	for k, v := range c.Additional {
		next[k] = v
	}
	next[key] = value
	c.Additional = next
	return c
}
