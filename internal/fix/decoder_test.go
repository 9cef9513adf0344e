package fix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() string {
	return BuildMessage([]string{
		"8=FIX.4.4",
		"9=000",
		"35=0",
		"34=2",
		"49=AAAAAAAA",
		"52=20240101-00:00:00.000",
		"56=TARGET",
	})
}

func TestDecoderSingleMessage(t *testing.T) {
	m := testMessage()

	var d Decoder
	d.Write([]byte(m))

	got, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.Equal(t, 0, d.Buffered())

	_, ok = d.Next()
	assert.False(t, ok)
}

func TestDecoderSplitAtEveryBoundary(t *testing.T) {
	m := []byte(testMessage())

	for i := 0; i <= len(m); i++ {
		var d Decoder

		d.Write(m[:i])
		if i < len(m) {
			_, ok := d.Next()
			require.False(t, ok, "no message may surface from a %d-byte prefix", i)
		}

		d.Write(m[i:])
		got, ok := d.Next()
		require.True(t, ok, "split at %d", i)
		require.Equal(t, string(m), got, "split at %d", i)

		_, ok = d.Next()
		require.False(t, ok, "exactly one message, split at %d", i)
	}
}

func TestDecoderResynchronizesAfterGarbage(t *testing.T) {
	m := testMessage()

	var d Decoder
	d.Write([]byte("\x00\x02NOISE@@junk"))
	d.Write([]byte(m))

	got, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.Equal(t, 0, d.Buffered())
}

func TestDecoderMultipleMessagesInOneRead(t *testing.T) {
	m := testMessage()

	var d Decoder
	d.Write([]byte(m + m))

	first, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, m, first)

	second, ok := d.Next()
	require.True(t, ok)
	assert.Equal(t, m, second)

	_, ok = d.Next()
	assert.False(t, ok)
}

func TestDecoderHoldsShortBuffer(t *testing.T) {
	var d Decoder
	d.Write([]byte("8=FIX.4."))

	_, ok := d.Next()
	assert.False(t, ok)
	assert.Equal(t, 8, d.Buffered())
}

func TestDecoderWithoutChecksumTerminator(t *testing.T) {
	// Checksum tag present but its delimiter still in flight.
	var d Decoder
	d.Write([]byte("8=FIX.4.4\x019=5\x0135=0\x0110=12"))

	_, ok := d.Next()
	assert.False(t, ok)
}
