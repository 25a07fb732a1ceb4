package security

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"voice_motto/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(seed byte) []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = seed + byte(i)
	}
	return key
}

func TestMottoCodec_RoundTrip(t *testing.T) {
	codec, err := NewMottoCodec(testKey(1))
	require.NoError(t, err)

	inputs := []string{
		"",
		"hello world",
		"This is a dummy transcription result.",
		"ünïcødé 日本語 🎙️",
		strings.Repeat("long motto ", 2000),
	}
	for _, in := range inputs {
		ct, err := codec.Encrypt(in)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(ct, []byte(tokenPrefixV1)))
		if in != "" {
			assert.NotContains(t, string(ct), in)
		}

		got, err := codec.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestMottoCodec_NonceIsRandom(t *testing.T) {
	codec, err := NewMottoCodec(testKey(1))
	require.NoError(t, err)

	a, err := codec.Encrypt("same")
	require.NoError(t, err)
	b, err := codec.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_ForeignKeyFails(t *testing.T) {
	ct, err := Encrypt("hello world", testKey(1))
	require.NoError(t, err)

	_, err = Decrypt(ct, testKey(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDecrypt_TamperedFails(t *testing.T) {
	key := testKey(7)
	ct, err := Encrypt("hello world", key)
	require.NoError(t, err)

	sealed, err := base64.RawURLEncoding.DecodeString(string(ct[len(tokenPrefixV1):]))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0x01
	tampered := append([]byte(tokenPrefixV1), base64.RawURLEncoding.EncodeToString(sealed)...)

	_, err = Decrypt(tampered, key)
	assert.ErrorIs(t, err, common.ErrDecryption)
}

func TestDecrypt_MalformedInput(t *testing.T) {
	key := testKey(3)
	cases := map[string][]byte{
		"empty":          nil,
		"unknown prefix": []byte("v2.abcdef"),
		"bad base64":     []byte("v1.!!!not-base64!!!"),
		"too short":      []byte("v1." + base64.RawURLEncoding.EncodeToString([]byte("x"))),
	}
	for name, ct := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decrypt(ct, key)
			assert.ErrorIs(t, err, common.ErrDecryption)
		})
	}
}

func TestNewMottoCodec_InvalidKey(t *testing.T) {
	_, err := NewMottoCodec([]byte("short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be 32 bytes")

	_, err = Encrypt("x", make([]byte, 64))
	require.Error(t, err)
}

func TestParseKey(t *testing.T) {
	raw := testKey(9)

	for name, encoded := range map[string]string{
		"hex":        hex.EncodeToString(raw),
		"url padded": base64.URLEncoding.EncodeToString(raw),
		"url raw":    base64.RawURLEncoding.EncodeToString(raw),
		"std padded": base64.StdEncoding.EncodeToString(raw),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseKey(encoded)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}

	_, err := ParseKey("")
	assert.Error(t, err)
	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.Error(t, err)
	_, err = ParseKey("%%%")
	assert.Error(t, err)
}

func TestGenerateKey(t *testing.T) {
	k, err := GenerateKey()
	require.NoError(t, err)
	key, err := ParseKey(k)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)
}
