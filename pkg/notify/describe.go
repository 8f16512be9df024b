package notify

import (
	"encoding/json"
	"fmt"
)

// Describe collapses an arbitrary failure value into a display string. The
// match is exhaustive over the closed set of failure shapes the build path
// can surface: structured errors carry a message, plain strings (recovered
// panics mostly) pass through, and anything else is serialized, with
// fmt.Sprint as the last resort when serialization itself fails.
func Describe(cause any) string {
	switch v := cause.(type) {
	case nil:
		return ""
	case error:
		return v.Error()
	case string:
		return v
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprint(v)
	}
}
