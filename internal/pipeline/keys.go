package pipeline

// Key is a single key event polled from the input source. Values match the
// ASCII codes delivered by the window's key poll.
type Key int

// Recognized key events. Anything else is ignored by the driver.
const (
	// KeyNone means no key was pressed during this tick's poll.
	KeyNone Key = -1

	KeyEdge   Key = '1'
	KeyMotion Key = '2'
	KeyROI    Key = '3'
	KeyNormal Key = '4'

	KeySkipMore Key = '+'
	KeySkipLess Key = '-'
	// KeySkipMoreAlias and KeySkipLessAlias accept the unshifted variants
	// of + and - on US layouts.
	KeySkipMoreAlias Key = '='
	KeySkipLessAlias Key = '_'

	KeyQuit Key = 'q'
)
