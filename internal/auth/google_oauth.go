package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleTokenURL    = "https://www.googleapis.com/oauth2/v3/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	// emailScope はログインに必要な最小限のスコープ。
	emailScope = "https://www.googleapis.com/auth/userinfo.email"
)

// UserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
// VerifiedEmailがfalseのユーザーはログインを拒否する。
type UserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
}

// Provider はOAuth認証プロバイダーのインターフェース。
// redirectURLはリクエストのHostヘッダーから組み立てるため呼び出しごとに渡す。
type Provider interface {
	// AuthCodeURL はstate・PKCEチャレンジ入りの認可URLを生成する。
	AuthCodeURL(state, verifier, redirectURL string) string
	// ExchangeCode は認可コードとPKCE検証値をアクセストークンに交換する。
	ExchangeCode(ctx context.Context, code, verifier, redirectURL string) (string, error)
	// FetchUserInfo はアクセストークンでユーザー情報を取得する。
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleOAuthProvider はGoogle OAuth 2.0（認可コード + PKCE）による認証を提供する。
type GoogleOAuthProvider struct {
	config GoogleOAuthConfig
}

// NewGoogleOAuthProvider はGoogleOAuthProviderを生成する。
func NewGoogleOAuthProvider(config GoogleOAuthConfig) *GoogleOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	return &GoogleOAuthProvider{config: config}
}

// oauth2Config はredirectURLを束ねたoauth2.Configを組み立てる。
func (p *GoogleOAuthProvider) oauth2Config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{emailScope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.config.AuthURL,
			TokenURL: p.config.TokenURL,
		},
	}
}

// AuthCodeURL はGoogleの認可URLを生成する。
// code_challenge_methodはS256固定。stateはCSRF対策のためDBに保存した値を渡す。
func (p *GoogleOAuthProvider) AuthCodeURL(state, verifier, redirectURL string) string {
	return p.oauth2Config(redirectURL).AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// ExchangeCode は認可コードをアクセストークンに交換する。
// PKCE検証値はログイン開始時に保存したものを添える。リトライはしない。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code, verifier, redirectURL string) (string, error) {
	token, err := p.oauth2Config(redirectURL).Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}
	return token.AccessToken, nil
}

// FetchUserInfo はアクセストークンでGoogleのユーザー情報を取得する。
func (p *GoogleOAuthProvider) FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var userInfo UserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if userInfo.Email == "" {
		return nil, fmt.Errorf("empty email in user info response")
	}

	return &userInfo, nil
}

// compile-time interface check
var _ Provider = (*GoogleOAuthProvider)(nil)
