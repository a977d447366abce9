package corrmatch

import "github.com/soocke/corrmatch/internal/cmerr"

// Sentinel errors for corrmatch operations. Wrap these with fmt.Errorf("%w: ...")
// when additional context (offending dimensions, indices) is useful; callers
// should compare against these with errors.Is. They are defined in
// internal/cmerr so every subpackage can return them without importing this
// root package; this file just re-exports the same values under their
// public names.
var (
	ErrInvalidDimensions   = cmerr.ErrInvalidDimensions
	ErrInvalidStride       = cmerr.ErrInvalidStride
	ErrBufferTooSmall      = cmerr.ErrBufferTooSmall
	ErrRoiOutOfBounds      = cmerr.ErrRoiOutOfBounds
	ErrDegenerateTemplate  = cmerr.ErrDegenerateTemplate
	ErrInvalidAngleGrid    = cmerr.ErrInvalidAngleGrid
	ErrIndexOutOfBounds    = cmerr.ErrIndexOutOfBounds
	ErrInvalidConfig       = cmerr.ErrInvalidConfig
	ErrRotationUnavailable = cmerr.ErrRotationUnavailable
	ErrNoCandidates        = cmerr.ErrNoCandidates
	ErrParallelUnavailable = cmerr.ErrParallelUnavailable
)
