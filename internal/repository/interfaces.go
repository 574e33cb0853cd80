// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/gatekeeper/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindOrCreateByEmail はemailでユーザーを検索し、存在しなければ作成する。
	// 同一emailへの同時初回ログインでも1レコードしか作られないよう、
	// 実装は検索と作成を1つの不可分な操作として提供しなければならない。
	FindOrCreateByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByTokenPart1 はトークンの非秘密側（part1）でセッションを検索する。
	// 見つからない場合、または期限切れの場合はnilを返す。
	// part2の照合は呼び出し側が定数時間比較で行う。
	FindByTokenPart1(ctx context.Context, part1 string) (*model.Session, error)

	// DeleteByTokenParts はpart1とpart2の両方が一致するセッションを削除する。
	// 該当セッションが存在しない場合もエラーにはならない。
	DeleteByTokenParts(ctx context.Context, part1, part2 string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// OAuthStateRepository はOAuthハンドシェイク状態の永続化インターフェース。
type OAuthStateRepository interface {
	// Create はハンドシェイク状態を作成する。
	Create(ctx context.Context, state *model.OAuthState) error

	// Consume はcsrf_tokenに対応する状態を読み取りと同時に削除する。
	// 削除と読み取りは1つの不可分な操作であり、同じcsrf_tokenを
	// 2回消費することはできない。見つからない場合、または期限切れの
	// 場合はnilを返す。
	Consume(ctx context.Context, csrfToken string) (*model.OAuthState, error)

	// DeleteExpired は期限切れの状態を削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
