package checkpoint

import "time"

const rfc3339 = time.RFC3339Nano

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(rfc3339, s)
}
