// Package corrmatch locates a grayscale template inside a grayscale search
// image, reporting a subpixel position, rotation angle, and similarity
// score.
//
// Typical use:
//
//	tpl, err := corrmatch.NewTemplate(templatePixels, w, h)
//	compiled, err := corrmatch.CompileUnrotated(tpl, corrmatch.CompileUnrotatedConfig{MaxLevels: 4})
//	matcher := corrmatch.NewMatcher(compiled)
//	searchView, err := corrmatch.NewView(searchPixels, sw, sh, sw)
//	match, err := matcher.MatchImage(searchView)
//
// Two metrics are supported (ZNCC, zero-mean normalized cross-correlation,
// and negative SSD, sum of squared differences), and rotation search is
// optional: compile with CompileRotated and enable it on the Matcher's
// MatchConfig to search over an angle grid in addition to position.
package corrmatch
