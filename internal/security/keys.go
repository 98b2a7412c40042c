package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// MinPhraseLen is the minimum accepted catchphrase length.
const MinPhraseLen = 4

// ErrInvalidPhrase is returned when the catchphrase is empty or too short.
var ErrInvalidPhrase = errors.New("invalid catchphrase")

// DerivePrivateKey returns the SHA-256 digest of the catchphrase, used as the
// secp256k1 private scalar. Deterministic: the same phrase always yields the
// same bytes. The phrase itself must never be persisted or logged.
func DerivePrivateKey(phrase string) ([]byte, error) {
	if len(phrase) < MinPhraseLen {
		return nil, ErrInvalidPhrase
	}
	sum := sha256.Sum256([]byte(phrase))
	return sum[:], nil
}

// DerivePublicKey derives the private key from the catchphrase and returns the
// corresponding secp256k1 public key, hex-encoded in uncompressed form.
// Deterministic end-to-end; registration stores this value and login re-derives
// and compares it.
func DerivePublicKey(phrase string) (string, error) {
	priv, err := DerivePrivateKey(phrase)
	if err != nil {
		return "", err
	}
	key := secp256k1.PrivKeyFromBytes(priv)
	return hex.EncodeToString(key.PubKey().SerializeUncompressed()), nil
}
