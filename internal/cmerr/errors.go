// Package cmerr holds the sentinel error taxonomy shared by every corrmatch
// subpackage. It exists so imgview, template, bank, kernel, candidate,
// refine and search can all return comparable errors without importing the
// root corrmatch package (which would create an import cycle, since corrmatch
// imports all of them). The root package re-exports these same values.
package cmerr

import "errors"

var (
	// ErrInvalidDimensions indicates a width or height of zero, or an
	// overflowing width*height product.
	ErrInvalidDimensions = errors.New("corrmatch: invalid dimensions")
	// ErrInvalidStride indicates a stride smaller than the width.
	ErrInvalidStride = errors.New("corrmatch: invalid stride")
	// ErrBufferTooSmall indicates a backing buffer shorter than required.
	ErrBufferTooSmall = errors.New("corrmatch: buffer too small")
	// ErrRoiOutOfBounds indicates a requested region of interest exceeds the
	// parent view's bounds.
	ErrRoiOutOfBounds = errors.New("corrmatch: roi out of bounds")
	// ErrDegenerateTemplate indicates a template with near-zero variance
	// (ZNCC) or an otherwise unusable set of moments.
	ErrDegenerateTemplate = errors.New("corrmatch: degenerate template")
	// ErrInvalidAngleGrid indicates a malformed angle grid configuration.
	ErrInvalidAngleGrid = errors.New("corrmatch: invalid angle grid")
	// ErrIndexOutOfBounds indicates an internal index (level, angle) outside
	// its valid range.
	ErrIndexOutOfBounds = errors.New("corrmatch: index out of bounds")
	// ErrInvalidConfig indicates a CompileConfig or MatchConfig failed
	// validation.
	ErrInvalidConfig = errors.New("corrmatch: invalid config")
	// ErrRotationUnavailable indicates a rotated plan was requested from a
	// CompiledTemplate that was compiled without rotation support.
	ErrRotationUnavailable = errors.New("corrmatch: rotation unavailable")
	// ErrNoCandidates indicates a refinement level produced no surviving
	// candidates; the match fails rather than falling back silently.
	ErrNoCandidates = errors.New("corrmatch: no candidates")
	// ErrParallelUnavailable is reserved for embedders that want parallel
	// execution to be a hard requirement rather than a best-effort opt-in.
	ErrParallelUnavailable = errors.New("corrmatch: parallel execution unavailable")
)
