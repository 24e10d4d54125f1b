package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

var (
	// ErrInvalidCredentials is returned for a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrConfirmationRequired is returned by sign-up when the account must be
	// confirmed by email before it can sign in.
	ErrConfirmationRequired = errors.New("check your email to confirm your account")

	// ErrIdentityUnavailable marks transport failures talking to the identity service.
	ErrIdentityUnavailable = errors.New("identity service unavailable")
)

// IdentityService is the hosted identity provider.
type IdentityService interface {
	SignIn(ctx context.Context, email, password string) (*oauth2.Token, error)
	SignUp(ctx context.Context, email, password string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	SignOut(ctx context.Context, accessToken string) error
}

// IdentityError is a non-2xx reply from the identity service.
type IdentityError struct {
	Status  int
	Message string
}

func (e *IdentityError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity service returned %d", e.Status)
	}
	return e.Message
}

// Identity is a client for a GoTrue-compatible auth API.
type Identity struct {
	http *resty.Client
}

// NewIdentity creates a client rooted at baseURL. anonKey is sent as the
// apikey header on every call.
func NewIdentity(baseURL, anonKey string, timeout time.Duration) *Identity {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/auth/v1").
		SetHeader("Accept", "application/json")
	if anonKey != "" {
		c.SetHeader("apikey", anonKey)
	}
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Identity{http: c}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (t tokenResponse) token() *oauth2.Token {
	if t.AccessToken == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	switch {
	case t.ExpiresAt > 0:
		tok.Expiry = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

type identityErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b identityErrorBody) text() string {
	for _, s := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (i *Identity) grant(ctx context.Context, grantType string, body any) (*oauth2.Token, error) {
	var (
		out  tokenResponse
		fail identityErrorBody
	)
	resp, err := i.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", grantType).
		SetBody(body).
		SetResult(&out).
		SetError(&fail).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	if resp.IsError() {
		if resp.StatusCode() == http.StatusBadRequest && grantType == "password" {
			return nil, ErrInvalidCredentials
		}
		return nil, &IdentityError{Status: resp.StatusCode(), Message: fail.text()}
	}
	tok := out.token()
	if tok == nil {
		return nil, &IdentityError{Status: resp.StatusCode(), Message: "identity service returned no access token"}
	}
	return tok, nil
}

// SignIn exchanges an email and password for a token.
func (i *Identity) SignIn(ctx context.Context, email, password string) (*oauth2.Token, error) {
	return i.grant(ctx, "password", map[string]string{"email": email, "password": password})
}

// Refresh exchanges a refresh token for a new token pair.
func (i *Identity) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return i.grant(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// SignUp registers a new account. When the service requires email
// confirmation no session is issued and ErrConfirmationRequired is returned.
func (i *Identity) SignUp(ctx context.Context, email, password string) (*oauth2.Token, error) {
	var (
		out  tokenResponse
		fail identityErrorBody
	)
	resp, err := i.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		SetError(&fail).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	if resp.IsError() {
		return nil, &IdentityError{Status: resp.StatusCode(), Message: fail.text()}
	}
	tok := out.token()
	if tok == nil {
		return nil, ErrConfirmationRequired
	}
	return tok, nil
}

// SignOut revokes the session behind accessToken.
func (i *Identity) SignOut(ctx context.Context, accessToken string) error {
	resp, err := i.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
	}
	if resp.IsError() {
		return &IdentityError{Status: resp.StatusCode()}
	}
	return nil
}
