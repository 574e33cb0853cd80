package model

import "time"

// Session はユーザーのログインセッションを表す。
// ブラウザに渡すトークンは "part1_part2" の連結形式で、
// part1は検索用のインデックス付き非秘密値、part2は固定長の秘密値。
// part2はDB検索のキーには使わず、定数時間比較でのみ照合する。
type Session struct {
	TokenPart1 string
	TokenPart2 string
	UserID     int64
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired はセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
