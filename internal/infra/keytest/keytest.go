// Package keytest はテスト用のRSA鍵と暗号文を生成する。
package keytest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"sync"
	"testing"
)

var (
	once   sync.Once
	key    *rsa.PrivateKey
	keyErr error
)

// Key はテスト全体で共有する2048ビットのRSA秘密鍵を返す。
func Key(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	once.Do(func() {
		key, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("generating RSA key: %v", keyErr)
	}
	return key
}

// OtherKey は Key とは別の新しい秘密鍵を返す。
func OtherKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	return k
}

// PKCS8PEM は秘密鍵をPKCS#8のPEM文字列に変換する。
func PKCS8PEM(t testing.TB, k *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(k)
	if err != nil {
		t.Fatalf("marshaling PKCS#8 key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// PKCS1PEM は秘密鍵をPKCS#1のPEM文字列に変換する。
func PKCS1PEM(k *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}))
}

// BareBase64 はPKCS#8 DERをヘッダ・改行なしのBase64で返す。
func BareBase64(t testing.TB, k *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(k)
	if err != nil {
		t.Fatalf("marshaling PKCS#8 key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(der)
}

// EncryptOAEP は公開鍵とハッシュで平文をOAEP暗号化し、Base64で返す。
func EncryptOAEP(t testing.TB, pub *rsa.PublicKey, hash crypto.Hash, plaintext string) string {
	t.Helper()
	ct, err := rsa.EncryptOAEP(hash.New(), rand.Reader, pub, []byte(plaintext), nil)
	if err != nil {
		t.Fatalf("OAEP encrypt: %v", err)
	}
	return base64.StdEncoding.EncodeToString(ct)
}

// EncryptPKCS1v15 は平文をPKCS#1 v1.5で暗号化し、Base64で返す。
func EncryptPKCS1v15(t testing.TB, pub *rsa.PublicKey, plaintext string) string {
	t.Helper()
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(plaintext))
	if err != nil {
		t.Fatalf("PKCS#1 v1.5 encrypt: %v", err)
	}
	return base64.StdEncoding.EncodeToString(ct)
}

// foreignAttempts は ForeignCiphertext が暗号文を作り直す上限。
const foreignAttempts = 16

// ForeignCiphertext は別の鍵でOAEP(SHA-256)暗号化した、Base64の暗号文を返す。
// k で復号するとPKCS#1 v1.5のパディング検査も偶然通過しうる（約1/65536）ため、
// k がいずれの方式でも復号できない暗号文が得られるまで作り直す。
func ForeignCiphertext(t testing.TB, k *rsa.PrivateKey, plaintext string) string {
	t.Helper()
	other := OtherKey(t)
	for range foreignAttempts {
		ct, err := rsa.EncryptOAEP(crypto.SHA256.New(), rand.Reader, &other.PublicKey, []byte(plaintext), nil)
		if err != nil {
			t.Fatalf("OAEP encrypt: %v", err)
		}
		if _, err := rsa.DecryptPKCS1v15(nil, k, ct); err == nil {
			continue
		}
		return base64.StdEncoding.EncodeToString(ct)
	}
	t.Fatalf("no ciphertext rejected by the key after %d attempts", foreignAttempts)
	return ""
}
