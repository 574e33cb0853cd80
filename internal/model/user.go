// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDはDBのBIGSERIALで採番され、一度割り当てられたら変更されない。
// emailは一意であり、同一emailに対するUserレコードは常に1件。
type User struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}

// UserData はリクエストスコープの認証済みユーザー情報を表す。
// セッション検証の結果からミドルウェアが導出し、リクエストコンテキストに
// 載せて各ハンドラーへ渡す。永続化はしない。
type UserData struct {
	UserID int64
	Email  string
}
