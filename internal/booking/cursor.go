package booking

import (
	"encoding/base64"
	"strconv"
)

// Cursors are opaque base64 wrappers around the last-seen slot id. They
// stay valid as long as ids are assigned monotonically and never reused.

func EncodeCursor(id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeCursor returns 0 (start of list) for an empty or malformed
// cursor; a bad cursor is never an error.
func DecodeCursor(cursor string) int64 {
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
