package corrmatch

import "github.com/soocke/corrmatch/search"

// Metric selects the correlation metric used by a Matcher.
type Metric = search.Metric

const (
	MetricZNCC = search.MetricZNCC
	MetricSSD  = search.MetricSSD
)

// RotationMode selects whether a Matcher searches over the angle grid.
type RotationMode = search.RotationMode

const (
	RotationDisabled = search.RotationDisabled
	RotationEnabled  = search.RotationEnabled
)

// MatchConfig configures a Matcher.
type MatchConfig = search.MatchConfig

// DefaultMatchConfig returns a reasonable starting configuration: unmasked
// ZNCC, rotation disabled, sequential execution.
func DefaultMatchConfig() MatchConfig { return search.DefaultMatchConfig() }

// Matcher runs the coarse-to-fine search of a CompiledTemplate against a
// search image.
type Matcher = search.Matcher

// NewMatcher builds a Matcher over compiled with the default MatchConfig.
func NewMatcher(compiled *CompiledTemplate) *Matcher {
	return search.NewMatcher(compiled)
}
