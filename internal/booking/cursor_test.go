package booking

import "testing"

func TestCursorRoundTrip(t *testing.T) {
	for _, id := range []int64{1, 42, 1 << 40} {
		if got := DecodeCursor(EncodeCursor(id)); got != id {
			t.Fatalf("round trip of %d gave %d", id, got)
		}
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	for _, cursor := range []string{"", "not-base64!!", "bm90LWEtbnVtYmVy", EncodeCursor(-5)} {
		if got := DecodeCursor(cursor); got != 0 {
			t.Fatalf("DecodeCursor(%q) = %d, want 0", cursor, got)
		}
	}
}
