// Package sanitize strips markup from user-supplied text fields. EventGo
// stores plain text only; bluemonday's strict policy removes every tag
// (and the contents of script/style elements) before values are validated
// and persisted.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton strict policy. Initialized once via sync.Once for
// thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// maxPasses bounds how many layers of entity encoding Text unwraps.
const maxPasses = 8

// angleBrackets removes any '<' or '>' left when input is encoded deeper
// than maxPasses.
var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Text removes all HTML markup from input and trims surrounding whitespace.
// bluemonday escapes the text it keeps; the entities are decoded again so
// "Tom & Jerry" round-trips unchanged. Decoding can surface markup that was
// entity-encoded ("&lt;script&gt;"), so sanitize and decode repeat until the
// value stops changing. A value that was only markup comes back empty, which
// lets required-field validation reject it.
func Text(input string) string {
	if input == "" {
		return ""
	}
	p := getPolicy()
	out := input
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(p.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(angleBrackets.Replace(out))
}
