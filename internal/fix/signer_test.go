package fix

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSeed is the 32-byte sequence 0x00..0x1f.
func testSeed() []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestParseSigningKeyRawSeed(t *testing.T) {
	seed := testSeed()
	encoded := base64.StdEncoding.EncodeToString(seed)

	key, err := ParseSigningKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), key)
}

func TestParseSigningKeyPKCS8(t *testing.T) {
	// ASN.1 prefix of a PKCS#8 Ed25519 private key, followed by the seed.
	prefix := []byte{
		0x30, 0x2e, 0x02, 0x01, 0x00, 0x30, 0x05, 0x06,
		0x03, 0x2b, 0x65, 0x70, 0x04, 0x22, 0x04, 0x20,
	}
	seed := testSeed()
	encoded := base64.StdEncoding.EncodeToString(append(prefix, seed...))

	key, err := ParseSigningKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, ed25519.NewKeyFromSeed(seed), key)
}

func TestParseSigningKeyRejectsBadMaterial(t *testing.T) {
	_, err := ParseSigningKey("not base64!!!")
	assert.Error(t, err)

	_, err = ParseSigningKey(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	assert.Error(t, err, "wrong length must fail before any connection attempt")

	_, err = ParseSigningKey(base64.StdEncoding.EncodeToString(make([]byte, 48)))
	assert.Error(t, err, "48 bytes without the ASN.1 marker is not a key")
}

func TestLogonRawDataKnownVector(t *testing.T) {
	key := ed25519.NewKeyFromSeed(testSeed())

	got := LogonRawData(key, "AAAAAAAA", "TARGET", 1, "20240101-00:00:00.000")

	// Ed25519 is deterministic, so the signature over the canonical payload
	// "A<SOH>AAAAAAAA<SOH>TARGET<SOH>1<SOH>20240101-00:00:00.000" is fixed
	// for this seed.
	want := "OvMjQokit6LDVas9CnTRV0c1nltnOe7ClkFc+DsNaMtubT0R657MNEzp/TQYMHFvHJ4Gmoy3a4xbB49Dv8SQCQ=="
	assert.Equal(t, want, got)
}

func TestLogonRawDataPayloadLayout(t *testing.T) {
	key := ed25519.NewKeyFromSeed(testSeed())
	pub := key.Public().(ed25519.PublicKey)

	encoded := LogonRawData(key, "AAAAAAAA", "TARGET", 1, "20240101-00:00:00.000")
	sig, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	payload := []byte("A\x01AAAAAAAA\x01TARGET\x011\x0120240101-00:00:00.000")
	assert.True(t, ed25519.Verify(pub, payload, sig),
		"signature must cover exactly the canonical payload")

	other := []byte("A\x01AAAAAAAA\x01TARGET\x012\x0120240101-00:00:00.000")
	assert.False(t, ed25519.Verify(pub, other, sig))
}
