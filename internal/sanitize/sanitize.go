// Package sanitize normalizes untrusted user-supplied filenames.
package sanitize

import (
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// FileName strips any directory component from name and replaces every
// character outside [A-Za-z0-9_.-] with an underscore. It never fails; an
// empty result means the input carried no usable name and must be rejected
// by the caller. Every user-supplied filename passes through here before
// any filesystem or URL operation.
func FileName(name string) string {
	base := name
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}

	return unsafeChars.ReplaceAllString(base, "_")
}
