package infra

import (
	"crypto/rsa"
	_ "crypto/sha1"
	_ "crypto/sha256"
	"fmt"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
)

// RSADecryptor はパディング方式を順に試行してRSA復号を行う。
// 生成後は変更されないため、並行利用に安全。
type RSADecryptor struct {
	key     *rsa.PrivateKey
	schemes []domain.PaddingScheme
}

// NewRSADecryptor は新しいRSADecryptorを生成する。
// schemes が空の場合は domain.DefaultPaddingSchemes を使用する。
func NewRSADecryptor(key *rsa.PrivateKey, schemes []domain.PaddingScheme) *RSADecryptor {
	if len(schemes) == 0 {
		schemes = domain.DefaultPaddingSchemes
	}
	return &RSADecryptor{
		key:     key,
		schemes: append([]domain.PaddingScheme(nil), schemes...),
	}
}

// Configured は秘密鍵が読み込まれているかを返す。
func (d *RSADecryptor) Configured() bool {
	return d.key != nil
}

// Decrypt は暗号文を復号し、平文と成功したパディング方式名を返す。
// 全方式で失敗した場合は個別の失敗理由を含めず domain.ErrDecryptionFailed を返す。
func (d *RSADecryptor) Decrypt(ciphertext []byte) ([]byte, string, error) {
	if d.key == nil {
		return nil, "", domain.ErrKeyNotConfigured
	}

	for _, scheme := range d.schemes {
		plaintext, err := decryptWithScheme(d.key, scheme, ciphertext)
		if err == nil {
			return plaintext, scheme.Name, nil
		}
	}
	return nil, "", domain.ErrDecryptionFailed
}

func decryptWithScheme(key *rsa.PrivateKey, scheme domain.PaddingScheme, ciphertext []byte) ([]byte, error) {
	switch scheme.Mode {
	case domain.PaddingOAEP:
		if !scheme.Hash.Available() {
			return nil, fmt.Errorf("hash %v unavailable", scheme.Hash)
		}
		return rsa.DecryptOAEP(scheme.Hash.New(), nil, key, ciphertext, nil)
	case domain.PaddingPKCS1v15:
		return rsa.DecryptPKCS1v15(nil, key, ciphertext)
	default:
		return nil, fmt.Errorf("unknown padding mode %q", scheme.Mode)
	}
}
