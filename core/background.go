package core

// BackgroundMarker ends a command line that should run without waiting.
const BackgroundMarker = '&'

// StripBackground reports whether line requests background execution and
// returns the line with the marker removed. Only the final character is
// examined. Must be called before tokenization so the marker can't leak into
// the argument list.
func StripBackground(line string) (string, bool) {
	if n := len(line); n > 0 && line[n-1] == BackgroundMarker {
		return line[:n-1], true
	}
	return line, false
}
