// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "crypto"

// EncryptedToken はBase64エンコードされたRSA暗号化トークンを表す。
type EncryptedToken string

// DecryptedToken は復号済みの平文トークンを表す。
type DecryptedToken string

// PaddingMode はRSA復号のパディング方式を表す。
type PaddingMode string

const (
	// PaddingOAEP はOAEPパディングを表す。
	PaddingOAEP PaddingMode = "oaep"
	// PaddingPKCS1v15 はPKCS#1 v1.5パディングを表す。
	PaddingPKCS1v15 PaddingMode = "pkcs1v15"
)

// PaddingScheme は復号を試行するパディング方式とハッシュの組を表す。
type PaddingScheme struct {
	Name string
	Mode PaddingMode
	Hash crypto.Hash // OAEPのみ使用
}

// DefaultPaddingSchemes は復号を試行する順序。
// 最も安全な方式から順に試し、失敗した場合のみ旧方式へフォールバックする。
var DefaultPaddingSchemes = []PaddingScheme{
	{Name: "oaep-sha256", Mode: PaddingOAEP, Hash: crypto.SHA256},
	{Name: "oaep-sha1", Mode: PaddingOAEP, Hash: crypto.SHA1},
	{Name: "pkcs1v15", Mode: PaddingPKCS1v15},
}

// TokenShape はAplos認証レスポンス内でトークンが見つかった位置を表す。
type TokenShape string

const (
	TokenShapeNone     TokenShape = ""
	TokenShapeData     TokenShape = "data.token"
	TokenShapeTopLevel TokenShape = "token"
)

// AuthTokenResponse はAplos認証APIのレスポンス。
// {"data":{"token":"..."}} と {"token":"..."} の両形式を受け付ける。
type AuthTokenResponse struct {
	Data *struct {
		Token string `json:"token"`
	} `json:"data,omitempty"`
	Token string `json:"token,omitempty"`
}

// Resolve はレスポンスから暗号化トークンを取り出す。
// 両方存在する場合は data.token を優先する。
func (r AuthTokenResponse) Resolve() (EncryptedToken, TokenShape) {
	if r.Data != nil && r.Data.Token != "" {
		return EncryptedToken(r.Data.Token), TokenShapeData
	}
	if r.Token != "" {
		return EncryptedToken(r.Token), TokenShapeTopLevel
	}
	return "", TokenShapeNone
}
