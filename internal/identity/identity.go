// Package identity encodes and decodes the hotkey identifiers reported in
// chaintypes.NodeRecord: a did:key-style string for the hotkey's public key,
// and a short checksummed address derived from it for the mock chain
// fixture's seed data. Neither key generation nor signing lives here — an
// identity file's private material is loaded elsewhere and never touches
// this package.
package identity

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"golang.org/x/crypto/ripemd160"
)

var (
	ErrInvalidHotkeyFormat  = errors.New("invalid hotkey public key format")
	ErrUnsupportedCurve     = errors.New("unsupported elliptic curve")
	ErrHotkeyFormat         = errors.New("invalid hotkey:// string format")
	ErrMultibaseDecode      = errors.New("failed to decode multibase string")
	ErrUnexpectedEncoding   = errors.New("unexpected multibase encoding")
	ErrMulticodecRead       = errors.New("failed to read multicodec code")
	ErrUnexpectedMulticodec = errors.New("unexpected multicodec type")
	ErrHotkeyLengthMismatch = errors.New("hotkey public key length mismatch after decoding")

	ErrInvalidAddressLength = errors.New("invalid short address length")
	ErrInvalidAddressFormat = errors.New("invalid short address format")
	ErrAddressChecksum      = errors.New("short address checksum mismatch")
)

// CodecSecp256r1PubKeyUncompressed is the multicodec for uncompressed P-256
// public keys, the curve hotkeys use in the mock fixture.
const CodecSecp256r1PubKeyUncompressed multicodec.Code = 0x1201

const (
	shortAddrPrefix  = "sn1"
	pubKeyHashLength = 20 // RIPEMD160 output length
	checksumLength   = 4
)

// EncodeHotkey renders an uncompressed P-256 public key as a
// "hotkey://<multicodec-prefixed, multibase-encoded key>" identifier, the
// string form stored in NodeRecord.Hotkey.
func EncodeHotkey(pubKeyBytes []byte) (string, error) {
	if len(pubKeyBytes) != 65 || pubKeyBytes[0] != 0x04 {
		return "", fmt.Errorf("%w: expected 65 bytes starting with 0x04 for uncompressed P-256, got %d bytes", ErrInvalidHotkeyFormat, len(pubKeyBytes))
	}

	var prefixed bytes.Buffer
	prefixed.Write(multicodec.Header(CodecSecp256r1PubKeyUncompressed))
	prefixed.Write(pubKeyBytes)

	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMultibaseDecode, err)
	}
	return "hotkey://" + encoded, nil
}

// EncodeHotkeyFromECDSA is a convenience wrapper over EncodeHotkey for an
// *ecdsa.PublicKey, validating that it is on the P-256 curve first.
func EncodeHotkeyFromECDSA(pubKey *ecdsa.PublicKey) (string, error) {
	if pubKey == nil {
		return "", fmt.Errorf("%w: public key cannot be nil", ErrInvalidHotkeyFormat)
	}
	if pubKey.Curve != elliptic.P256() {
		return "", fmt.Errorf("%w: hotkey must use P256 curve, got %s", ErrUnsupportedCurve, pubKey.Curve.Params().Name)
	}
	raw := elliptic.Marshal(elliptic.P256(), pubKey.X, pubKey.Y)
	return EncodeHotkey(raw)
}

// DecodeHotkey parses a "hotkey://..." identifier back into its raw
// uncompressed P-256 public key bytes.
func DecodeHotkey(hotkey string) ([]byte, error) {
	if !strings.HasPrefix(hotkey, "hotkey://") {
		return nil, ErrHotkeyFormat
	}
	body := strings.TrimPrefix(hotkey, "hotkey://")

	encoding, decoded, err := multibase.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMultibaseDecode, err)
	}
	if encoding != multibase.Base58BTC {
		return nil, fmt.Errorf("%w: expected Base58BTC ('z') encoding, got %s", ErrUnexpectedEncoding, multibase.EncodingToStr[encoding])
	}

	codec, rest, err := multicodec.Consume(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMulticodecRead, err)
	}
	if multicodec.Code(codec) != CodecSecp256r1PubKeyUncompressed {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedMulticodec, CodecSecp256r1PubKeyUncompressed, multicodec.Code(codec))
	}

	if len(rest) != 65 {
		return nil, fmt.Errorf("%w: expected 65 bytes, got %d", ErrHotkeyLengthMismatch, len(rest))
	}
	if rest[0] != 0x04 {
		return nil, fmt.Errorf("%w: decoded key missing uncompressed-point prefix", ErrInvalidHotkeyFormat)
	}
	return rest, nil
}

// hashHotkey derives a short, unique identifier from a hotkey's raw public
// key bytes via RIPEMD160(SHA256(pubKey)), the same two-stage derivation the
// fixture data needs for human-sized addresses.
func hashHotkey(pubKeyBytes []byte) ([]byte, error) {
	if len(pubKeyBytes) == 0 {
		return nil, fmt.Errorf("%w: public key bytes cannot be empty", ErrInvalidHotkeyFormat)
	}
	sum256 := sha256.Sum256(pubKeyBytes)
	h := ripemd160.New()
	h.Write(sum256[:])
	digest := h.Sum(nil)
	if len(digest) != pubKeyHashLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHotkeyFormat, pubKeyHashLength, len(digest))
	}
	return digest, nil
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// ShortAddress derives a "sn1_<hex>" fixture address from a hotkey's raw
// public key bytes: a hash, a checksum, and a human-readable prefix — no
// signature verification, no on-chain meaning, only a stable fixture ID.
func ShortAddress(pubKeyBytes []byte) (string, error) {
	hash, err := hashHotkey(pubKeyBytes)
	if err != nil {
		return "", err
	}
	payload := append([]byte{0x00}, hash...)
	payload = append(payload, checksum(payload)...)
	return shortAddrPrefix + "_" + hex.EncodeToString(payload), nil
}

// ParseShortAddress validates and decodes a "sn1_<hex>" fixture address,
// returning the embedded public-key hash.
func ParseShortAddress(address string) ([]byte, error) {
	if !strings.HasPrefix(address, shortAddrPrefix+"_") {
		return nil, fmt.Errorf("%w: expected prefix %q", ErrInvalidAddressFormat, shortAddrPrefix+"_")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(address, shortAddrPrefix+"_"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}

	want := 1 + pubKeyHashLength + checksumLength
	if len(raw) != want {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddressLength, want, len(raw))
	}

	version := raw[0]
	hash := raw[1 : 1+pubKeyHashLength]
	sum := raw[1+pubKeyHashLength:]

	if version != 0x00 {
		return nil, fmt.Errorf("%w: unexpected version byte 0x%x", ErrInvalidAddressFormat, version)
	}
	if !bytes.Equal(sum, checksum(raw[:want-checksumLength])) {
		return nil, ErrAddressChecksum
	}
	return hash, nil
}
