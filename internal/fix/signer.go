package fix

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// pkcs8KeyLen is the size of the PKCS#8-style key export the venue hands
// out: a fixed 16-byte ASN.1 prefix followed by the 32-byte Ed25519 seed.
const pkcs8KeyLen = 48

// ParseSigningKey decodes a base64 private key blob into an Ed25519 signing
// key. Both the 48-byte PKCS#8 wrapper and a raw 32-byte seed are accepted.
// Anything else is rejected immediately so that bad key material fails at
// startup instead of surfacing as a silent logon rejection.
func ParseSigningKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	var seed []byte
	switch {
	case len(raw) == pkcs8KeyLen && raw[0] == 0x30:
		seed = raw[16:48]
	case len(raw) == ed25519.SeedSize:
		seed = raw
	default:
		return nil, fmt.Errorf("invalid ed25519 private key: %d bytes", len(raw))
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

// LogonRawData signs the venue's canonical logon payload
// "A"<SOH>sender<SOH>target<SOH>seq<SOH>sendingTime and returns the
// signature base64-encoded for the RawData(96) field. The payload layout and
// field order are fixed by the venue's authentication scheme; any deviation
// yields a rejected logon.
func LogonRawData(key ed25519.PrivateKey, sender, target string, seq int, sendingTime string) string {
	payload := fmt.Sprintf("A%s%s%s%s%s%d%s%s", SOH, sender, SOH, target, SOH, seq, SOH, sendingTime)
	sig := ed25519.Sign(key, []byte(payload))
	return base64.StdEncoding.EncodeToString(sig)
}
