package provider

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// AuthState is the persisted provider link: whether the user has authorized
// access, and the public URL of the linked calendar.
type AuthState struct {
	Authorized        bool          `json:"authorized"`
	PublicCalendarURL string        `json:"public_calendar_url,omitempty"`
	CalendarID        string        `json:"calendar_id,omitempty"`
	Token             *oauth2.Token `json:"token,omitempty"`
}

// AuthStore persists AuthState between restarts. Implementations are
// best-effort caches; a read miss means "not connected".
type AuthStore interface {
	LoadAuthState(ctx context.Context) (*AuthState, error)
	SaveAuthState(ctx context.Context, st *AuthState) error
	ClearAuthState(ctx context.Context) error
}

// ConnectionManager tracks the provider authorization and builds a Provider
// from the stored credentials.
type ConnectionManager struct {
	store AuthStore
	oauth *oauth2.Config
}

func NewConnectionManager(store AuthStore, clientID, clientSecret string) *ConnectionManager {
	return &ConnectionManager{
		store: store,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarScope},
		},
	}
}

// AuthCodeURL returns the URL the user visits to authorize calendar access.
func (m *ConnectionManager) AuthCodeURL() string {
	return m.oauth.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Connect exchanges an authorization code and persists the resulting state.
func (m *ConnectionManager) Connect(ctx context.Context, code, calendarID, publicURL string) error {
	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	st := &AuthState{
		Authorized:        true,
		PublicCalendarURL: publicURL,
		CalendarID:        calendarID,
		Token:             token,
	}
	if err := m.store.SaveAuthState(ctx, st); err != nil {
		return fmt.Errorf("persist auth state: %w", err)
	}
	return nil
}

// Disconnect clears the stored authorization.
func (m *ConnectionManager) Disconnect(ctx context.Context) error {
	return m.store.ClearAuthState(ctx)
}

// Status returns the persisted state; a missing record reads as unauthorized.
func (m *ConnectionManager) Status(ctx context.Context) (*AuthState, error) {
	st, err := m.store.LoadAuthState(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return &AuthState{}, nil
	}
	return st, nil
}

// Build returns a Provider for the stored credentials, or ErrNotConnected
// when no authorization is on record.
func (m *ConnectionManager) Build(ctx context.Context) (Provider, string, error) {
	st, err := m.Status(ctx)
	if err != nil {
		return nil, "", err
	}
	if !st.Authorized || st.Token == nil {
		return nil, "", ErrNotConnected
	}
	client := m.oauth.Client(ctx, st.Token)
	p, err := NewGoogleProvider(ctx, client)
	if err != nil {
		return nil, "", err
	}
	calID := st.CalendarID
	if calID == "" {
		calID = "primary"
	}
	return p, calID, nil
}
