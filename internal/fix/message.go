package fix

import (
	"fmt"
	"strings"
	"time"
)

// BuildMessage completes a FIX message from an ordered field list. fields[0]
// must be the begin-string and fields[1] a body-length placeholder; the real
// BodyLength(9) and the Checksum(10) trailer are computed here. Field order
// is preserved exactly as given, which the venue requires.
func BuildMessage(fields []string) string {
	body := strings.Join(fields[2:], SOH) + SOH
	fields[1] = fmt.Sprintf("9=%d", len(body))
	m := strings.Join(fields[:2], SOH) + SOH + body
	return m + fmt.Sprintf("10=%03d%s", checksum(m), SOH)
}

// checksum is the byte sum mod 256 over everything preceding the trailer.
// Must stay bit-exact: zero-padded decimal on the wire.
func checksum(m string) int {
	sum := 0
	for i := 0; i < len(m); i++ {
		sum += int(m[i])
	}
	return sum % 256
}

// ExtractField returns the value of the first occurrence of tag in a raw
// message, scanning left to right. The value runs to the next SOH, or to the
// end of the message when no delimiter follows. ok is false when the tag is
// absent; callers must tolerate that, not every message carries every
// optional tag.
func ExtractField(message, tag string) (value string, ok bool) {
	pattern := tag + "="
	i := strings.Index(message, pattern)
	if i < 0 {
		return "", false
	}
	rest := message[i+len(pattern):]
	if j := strings.IndexByte(rest, sohByte); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

// SendingTime formats t as a FIX UTCTimestamp with millisecond precision,
// the format used in tag 52 and in the signed logon payload.
func SendingTime(t time.Time) string {
	return t.UTC().Format("20060102-15:04:05.000")
}
