package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nexconsult/controle-cte/internal/config"
	"github.com/nexconsult/controle-cte/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Identity errors
var (
	ErrAccessDenied  = errors.New("access denied")
	ErrStateMismatch = errors.New("login state mismatch")
)

// Auth0Provider implements IdentityProvider with the authorization code flow
type Auth0Provider struct {
	baseURL  string
	clientID string
	oauth    *oauth2.Config
}

// NewAuth0Provider creates a provider for the tenant in cfg.Domain. A domain
// with a scheme is used as is, which lets tests point it at a local server.
func NewAuth0Provider(cfg config.AuthConfig) *Auth0Provider {
	base := strings.TrimRight(cfg.Domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return &Auth0Provider{
		baseURL:  base,
		clientID: cfg.ClientID,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/authorize",
				TokenURL:  base + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthCodeURL builds the provider login URL with a PKCE challenge
func (p *Auth0Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the code for a token and loads the user profile
func (p *Auth0Provider) Exchange(ctx context.Context, code, verifier string) (*models.User, error) {
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	client := p.oauth.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var user models.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo: %w", err)
	}
	if user.Subject == "" {
		return nil, fmt.Errorf("userinfo without subject")
	}
	return &user, nil
}

// LogoutURL builds the provider logout URL
func (p *Auth0Provider) LogoutURL(returnTo string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("returnTo", returnTo)
	return p.baseURL + "/v2/logout?" + q.Encode()
}

// AuthService is the identity gate: it keeps the login flow in the session
// and derives the identity signals from it.
type AuthService struct {
	provider     IdentityProvider
	sessions     SessionStore
	loginTimeout time.Duration
	logger       *logrus.Logger
	now          func() time.Time
}

// NewAuthService creates a new identity gate
func NewAuthService(provider IdentityProvider, sessions SessionStore, loginTimeout time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		provider:     provider,
		sessions:     sessions,
		loginTimeout: loginTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// State derives the identity signals. A login redirect younger than the
// login timeout counts as loading.
func (a *AuthService) State(session *Session) models.AuthState {
	if session == nil {
		return models.AuthState{}
	}

	auth := session.Auth
	switch auth.Status {
	case AuthAuthenticated:
		return models.AuthState{IsAuthenticated: true, User: auth.User}
	case AuthFailed:
		return models.AuthState{Error: fmt.Errorf("%w: %s", ErrAccessDenied, auth.Error)}
	case AuthPending:
		if a.now().Sub(auth.PendingSince) < a.loginTimeout {
			return models.AuthState{IsLoading: true}
		}
	}
	return models.AuthState{}
}

// Login records a pending login and returns the provider URL
func (a *AuthService) Login(ctx context.Context, sessionID string) (string, error) {
	state, err := randomToken(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	// PKCE verifier, sent as its S256 challenge
	verifier := oauth2.GenerateVerifier()

	_, err = a.sessions.Update(ctx, sessionID, func(session *Session) error {
		session.Auth = AuthSession{
			Status:       AuthPending,
			State:        state,
			Verifier:     verifier,
			PendingSince: a.now(),
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	a.logger.WithField("session_id", sessionID).Info("Login redirect issued")
	return a.provider.AuthCodeURL(state, verifier), nil
}

// Callback completes the login. Only the redirect answering the pending
// login, matched by state, may change the session: provider errors and
// failed exchanges then leave it failed, which the pages show as access
// denied. Any other callback is rejected and the session is left as it was.
func (a *AuthService) Callback(ctx context.Context, sessionID string, query url.Values) error {
	log := a.logger.WithField("session_id", sessionID)

	session, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	// Unsolicited or forged redirects never touch the session
	if !matchesPendingLogin(session.Auth, query.Get("state")) {
		log.WithField("status", session.Auth.Status).Warn("Ignoring callback without a matching login")
		return ErrStateMismatch
	}

	var callbackErr error
	var user *models.User

	// Provider error, or trade the code for the user
	if providerErr := query.Get("error"); providerErr != "" {
		reason := query.Get("error_description")
		if reason == "" {
			reason = providerErr
		}
		callbackErr = errors.New(reason)
	} else {
		user, callbackErr = a.provider.Exchange(ctx, query.Get("code"), session.Auth.Verifier)
	}

	_, err = a.sessions.Update(ctx, sessionID, func(session *Session) error {
		// Another callback finished this login first
		if !matchesPendingLogin(session.Auth, query.Get("state")) {
			return ErrStateMismatch
		}
		if callbackErr != nil {
			session.Auth = AuthSession{Status: AuthFailed, Error: callbackErr.Error()}
			return nil
		}
		session.Auth = AuthSession{Status: AuthAuthenticated, User: user}
		return nil
	})
	if err != nil {
		return err
	}

	if callbackErr != nil {
		log.WithField("error", callbackErr.Error()).Warn("Login failed")
		return fmt.Errorf("%w: %v", ErrAccessDenied, callbackErr)
	}

	log.WithField("user", user.Subject).Info("User logged in")
	return nil
}

func matchesPendingLogin(auth AuthSession, state string) bool {
	return auth.Status == AuthPending && auth.State != "" &&
		subtle.ConstantTimeCompare([]byte(state), []byte(auth.State)) == 1
}

// Logout drops the session and returns the provider logout URL
func (a *AuthService) Logout(ctx context.Context, sessionID, returnTo string) (string, error) {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return "", err
	}
	a.logger.WithField("session_id", sessionID).Info("User logged out")
	return a.provider.LogoutURL(returnTo), nil
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
