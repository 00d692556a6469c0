// Package migrations は監査ログ用スキーマのSQLを埋め込む。
package migrations

import "embed"

// FS はマイグレーションSQLファイル。
//
//go:embed *.sql
var FS embed.FS
