package model

import "time"

// OAuthState はOAuthハンドシェイク1回分のサーバー側状態を表す。
// ログイン開始時に作成し、コールバックで1回だけ消費する。
// CSRFTokenはプロバイダーへstateパラメータとして往復させる値で、
// コールバックを開始リクエストに紐付ける。
type OAuthState struct {
	CSRFToken    string
	PKCEVerifier string
	ReturnURL    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
