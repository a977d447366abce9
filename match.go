package corrmatch

import "github.com/soocke/corrmatch/search"

// Match is a located template: subpixel position, resolved rotation angle
// in degrees (0 if rotation was disabled), and a similarity score.
type Match = search.Match
