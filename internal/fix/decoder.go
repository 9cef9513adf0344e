package fix

import "bytes"

var (
	beginMarker    = []byte("8=FIX")
	checksumMarker = []byte(SOH + "10=")
)

// Decoder frames a FIX byte stream into discrete messages. Raw transport
// bytes are appended with Write as they arrive; Next pops one complete
// message at a time, leaving partial data buffered for the following reads.
// Bytes preceding the begin marker are discarded, which resynchronizes the
// stream after corruption or injected garbage.
//
// A message ends at the SOH terminating the checksum field. BodyLength is
// not validated against the actual content, so an SOH embedded inside a
// field value would mis-frame the stream. Known limitation.
type Decoder struct {
	buf []byte
}

// Write appends raw transport bytes to the decode buffer.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next returns the next complete message, or ok=false when the buffer does
// not yet hold one. Partial data is never an error and consumes nothing.
func (d *Decoder) Next() (msg string, ok bool) {
	if len(d.buf) < 10 {
		return "", false
	}
	start := bytes.Index(d.buf, beginMarker)
	if start < 0 {
		return "", false
	}
	if start > 0 {
		d.buf = d.buf[start:]
	}
	ci := bytes.Index(d.buf, checksumMarker)
	if ci < 0 {
		return "", false
	}
	rest := d.buf[ci+len(checksumMarker):]
	end := bytes.IndexByte(rest, sohByte)
	if end < 0 {
		return "", false
	}
	n := ci + len(checksumMarker) + end + 1
	msg = string(d.buf[:n])
	d.buf = d.buf[n:]
	return msg, true
}

// Buffered reports how many undecoded bytes are pending.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
