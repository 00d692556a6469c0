package infra

import (
	"crypto"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
	"github.com/jgodboutprospector/canmp-sub003/internal/infra/keytest"
)

func mustDecodeB64(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDefaultPaddingSchemes_Order(t *testing.T) {
	names := make([]string, len(domain.DefaultPaddingSchemes))
	for i, s := range domain.DefaultPaddingSchemes {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"oaep-sha256", "oaep-sha1", "pkcs1v15"}, names)
}

func TestRSADecryptor_EachScheme(t *testing.T) {
	k := keytest.Key(t)
	d := NewRSADecryptor(k, nil)

	tests := []struct {
		name       string
		ciphertext string
		wantScheme string
		want       string
	}{
		{
			name:       "OAEP SHA-256",
			ciphertext: keytest.EncryptOAEP(t, &k.PublicKey, crypto.SHA256, "token-sha256"),
			wantScheme: "oaep-sha256",
			want:       "token-sha256",
		},
		{
			name:       "OAEP SHA-1",
			ciphertext: keytest.EncryptOAEP(t, &k.PublicKey, crypto.SHA1, "token-sha1"),
			wantScheme: "oaep-sha1",
			want:       "token-sha1",
		},
		{
			name:       "PKCS#1 v1.5",
			ciphertext: keytest.EncryptPKCS1v15(t, &k.PublicKey, "token-pkcs1"),
			wantScheme: "pkcs1v15",
			want:       "token-pkcs1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext, scheme, err := d.Decrypt(mustDecodeB64(t, tt.ciphertext))
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.want, string(plaintext))
		})
	}
}

func TestRSADecryptor_RecoversExactPlaintext(t *testing.T) {
	k := keytest.Key(t)
	d := NewRSADecryptor(k, nil)
	want := "eyJhbGciOi.日本語.✓"

	plaintext, _, err := d.Decrypt(mustDecodeB64(t, keytest.EncryptOAEP(t, &k.PublicKey, crypto.SHA256, want)))
	require.NoError(t, err)
	assert.Equal(t, []byte(want), plaintext)
}

func TestRSADecryptor_PKCS1RequiresFallback(t *testing.T) {
	k := keytest.Key(t)
	ciphertext := mustDecodeB64(t, keytest.EncryptPKCS1v15(t, &k.PublicKey, "legacy"))

	withFallback := NewRSADecryptor(k, domain.DefaultPaddingSchemes)
	plaintext, scheme, err := withFallback.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "pkcs1v15", scheme)
	assert.Equal(t, "legacy", string(plaintext))

	withoutFallback := NewRSADecryptor(k, domain.DefaultPaddingSchemes[:2])
	_, _, err = withoutFallback.Decrypt(ciphertext)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestRSADecryptor_WrongKey(t *testing.T) {
	k := keytest.Key(t)

	for range 3 {
		ciphertext := mustDecodeB64(t, keytest.ForeignCiphertext(t, k, "secret"))

		_, scheme, err := NewRSADecryptor(k, nil).Decrypt(ciphertext)
		require.ErrorIs(t, err, domain.ErrDecryptionFailed)
		assert.Empty(t, scheme)
		// 失敗理由に方式名を含めない
		assert.Equal(t, domain.ErrDecryptionFailed.Error(), err.Error())
	}
}

func TestRSADecryptor_WrongKey_OAEPOnly(t *testing.T) {
	k := keytest.Key(t)
	other := keytest.OtherKey(t)
	ciphertext := mustDecodeB64(t, keytest.EncryptOAEP(t, &other.PublicKey, crypto.SHA256, "secret"))

	_, scheme, err := NewRSADecryptor(k, domain.DefaultPaddingSchemes[:2]).Decrypt(ciphertext)
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Empty(t, scheme)
}

func TestRSADecryptor_Garbage(t *testing.T) {
	_, _, err := NewRSADecryptor(keytest.Key(t), nil).Decrypt([]byte("short"))
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestRSADecryptor_NoKey(t *testing.T) {
	d := NewRSADecryptor(nil, nil)

	assert.False(t, d.Configured())
	_, _, err := d.Decrypt([]byte("anything"))
	assert.ErrorIs(t, err, domain.ErrKeyNotConfigured)
}

func TestRSADecryptor_SchemesAreCopied(t *testing.T) {
	k := keytest.Key(t)
	schemes := []domain.PaddingScheme{{Name: "oaep-sha256", Mode: domain.PaddingOAEP, Hash: crypto.SHA256}}
	d := NewRSADecryptor(k, schemes)

	// 生成後に呼び出し元のスライスを変更しても影響しない
	schemes[0] = domain.PaddingScheme{Name: "pkcs1v15", Mode: domain.PaddingPKCS1v15}

	_, scheme, err := d.Decrypt(mustDecodeB64(t, keytest.EncryptOAEP(t, &k.PublicKey, crypto.SHA256, "x")))
	require.NoError(t, err)
	assert.Equal(t, "oaep-sha256", scheme)
}
