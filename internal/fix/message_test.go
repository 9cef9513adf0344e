package fix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageKnownVector(t *testing.T) {
	fields := []string{
		"8=FIX.4.4",
		"9=000",
		"35=0",
		"34=2",
		"49=AAAAAAAA",
		"52=20240101-00:00:00.000",
		"56=TARGET",
	}

	got := BuildMessage(fields)

	want := "8=FIX.4.4\x019=57\x0135=0\x0134=2\x0149=AAAAAAAA\x0152=20240101-00:00:00.000\x0156=TARGET\x0110=130\x01"
	assert.Equal(t, want, got, "message must be bit-exact for venue interop")
}

func TestChecksumModuloAndPadding(t *testing.T) {
	// '@' is 64, so four of them sum to exactly 256; '3' is 51, so five of
	// them sum to 255.
	assert.Equal(t, 0, checksum(""), "empty prefix sums to zero")
	assert.Equal(t, 0, checksum("@@@@"), "sum 256 wraps to zero")
	assert.Equal(t, 255, checksum("33333"), "sum 255 is the max value")

	fields := []string{"@@@@", "9=000", "35=0"}
	m := BuildMessage(fields)
	assert.Equal(t, "10=", m[len(m)-7:len(m)-4], "trailer tag present")
	assert.Len(t, m[len(m)-4:len(m)-1], 3, "checksum is always three digits")
}

func TestBuildMessageSetsBodyLength(t *testing.T) {
	fields := []string{"8=FIX.4.4", "9=000", "35=0", "112=PING"}
	m := BuildMessage(fields)

	// Body is everything after the body-length field up to the checksum.
	bodyLen, ok := ExtractField(m, "9")
	require.True(t, ok)
	assert.Equal(t, "14", bodyLen, `"35=0<SOH>112=PING<SOH>" is 14 bytes`)
}

func TestRoundTripBuildExtract(t *testing.T) {
	fields := []string{
		"8=FIX.4.4",
		"9=000",
		"35=D",
		"34=7",
		"49=SENDER01",
		"56=TARGET",
		"11=abc-123",
		"55=BTCUSDT",
		"54=1",
		"38=0.0001",
		"40=2",
		"44=100000",
		"59=1",
	}
	m := BuildMessage(fields)

	for _, f := range fields[2:] {
		tag, value := splitField(t, f)
		got, ok := ExtractField(m, tag)
		require.True(t, ok, "tag %s must be present", tag)
		assert.Equal(t, value, got, "tag %s", tag)
	}

	begin, ok := ExtractField(m, "8")
	require.True(t, ok)
	assert.Equal(t, "FIX.4.4", begin)
}

func TestExtractFieldAbsent(t *testing.T) {
	m := "8=FIX.4.4\x019=5\x0135=0\x0110=123\x01"
	_, ok := ExtractField(m, "112")
	assert.False(t, ok)
}

func TestExtractFieldFirstOccurrenceWins(t *testing.T) {
	m := "8=FIX.4.4\x01269=0\x01270=100\x01269=1\x01270=200\x01"
	v, ok := ExtractField(m, "270")
	require.True(t, ok)
	assert.Equal(t, "100", v)
}

func TestExtractFieldWithoutTrailingDelimiter(t *testing.T) {
	v, ok := ExtractField("35=A", "35")
	require.True(t, ok)
	assert.Equal(t, "A", v)
}

func splitField(t *testing.T, f string) (tag, value string) {
	t.Helper()
	for i := 0; i < len(f); i++ {
		if f[i] == '=' {
			return f[:i], f[i+1:]
		}
	}
	t.Fatalf("malformed field %q", f)
	return "", ""
}
