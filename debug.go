package sprout

import (
	"fmt"
	"io"
	"os"
)

// globalDebug gates the [sprout] trace lines. Only valid with a single
// Session; multiple Sessions with differing debug modes reflect whichever
// called SetDebugMode last.
var globalDebug bool

// debugOut is where trace lines go. Tests swap it for a buffer.
var debugOut io.Writer = os.Stderr

// SetDebugMode enables or disables debug tracing. When enabled, every
// classification, resolution, mutation, effect change and tick-loop
// start/stop is printed to stderr.
func SetDebugMode(enabled bool) {
	globalDebug = enabled
}

// DebugMode reports whether debug tracing is on.
func DebugMode() bool {
	return globalDebug
}

func debugf(format string, args ...any) {
	if !globalDebug {
		return
	}
	_, _ = fmt.Fprintf(debugOut, "[sprout] "+format+"\n", args...)
}
