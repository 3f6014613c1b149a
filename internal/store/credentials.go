package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keyClientID     = "client_id"
	keyClientSecret = "client_secret"
)

// Credentials holds the OAuth2 tokens for the provider session.
//
// A zero ExpiresAt means the expiry is unknown and a refresh is due.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticated reports whether a refresh token has been obtained.
func (c Credentials) Authenticated() bool {
	return c.RefreshToken != ""
}

// NeedsRefresh reports whether the access token must be renewed: it is absent,
// its expiry is unknown, or it expires within the margin.
func (c Credentials) NeedsRefresh(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-margin))
}

// Token converts the credentials to an [oauth2.Token].
func (c Credentials) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		Expiry:       c.ExpiresAt,
	}
}

// Registration identifies the application registered with the provider.
type Registration struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both halves of the registration are present.
func (r Registration) Complete() bool {
	return r.ClientID != "" && r.ClientSecret != ""
}

// kvTable wraps a two-column SQLite table as a flat key-value record.
type kvTable struct {
	db    *sql.DB
	table string
}

func (t kvTable) get(key string) (string, error) {
	var value string
	err := t.db.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE key = ?", t.table), key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s.%s: %w", t.table, key, err)
	}
	return value, nil
}

// setAll writes every pair in a single transaction so a crash cannot leave the
// record half-updated.
func (t kvTable) setAll(pairs map[string]string) error {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, t.table)

	for key, value := range pairs {
		if _, err := tx.Exec(query, key, value); err != nil {
			return fmt.Errorf("failed to write %s.%s: %w", t.table, key, err)
		}
	}

	return tx.Commit()
}

// CredentialStore owns the in-memory Credentials record and mirrors every
// mutation to the credentials table.
//
// The token lifecycle manager is the only writer; the poller and auth flow are
// readers. Reads return a copy, so no caller ever holds the lock across I/O.
type CredentialStore struct {
	mu      sync.Mutex
	kv      kvTable
	current Credentials
}

// NewCredentialStore creates a CredentialStore backed by db, loading any
// previously persisted record.
func NewCredentialStore(db *sql.DB) (*CredentialStore, error) {
	s := &CredentialStore{kv: kvTable{db: db, table: "credentials"}}

	access, err := s.kv.get(keyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.kv.get(keyRefreshToken)
	if err != nil {
		return nil, err
	}
	expiresAt, err := s.kv.get(keyExpiresAt)
	if err != nil {
		return nil, err
	}

	s.current = Credentials{AccessToken: access, RefreshToken: refresh}
	if expiresAt != "" {
		if ts, err := time.Parse(time.RFC3339, expiresAt); err == nil {
			s.current.ExpiresAt = ts.UTC()
		}
	}

	return s, nil
}

// Current returns a copy of the credentials record.
func (s *CredentialStore) Current() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Replace atomically swaps the in-memory record and persists it.
//
// The database write happens outside the lock but completes before Replace
// returns, so a successful return means the record is durable.
func (s *CredentialStore) Replace(c Credentials) error {
	s.mu.Lock()
	s.current = c
	s.mu.Unlock()

	expiresAt := ""
	if !c.ExpiresAt.IsZero() {
		expiresAt = c.ExpiresAt.UTC().Format(time.RFC3339)
	}

	return s.kv.setAll(map[string]string{
		keyAccessToken:  c.AccessToken,
		keyRefreshToken: c.RefreshToken,
		keyExpiresAt:    expiresAt,
	})
}

// RegistrationStore persists the provider client registration.
type RegistrationStore struct {
	mu sync.Mutex
	kv kvTable
}

// NewRegistrationStore creates a RegistrationStore backed by db.
func NewRegistrationStore(db *sql.DB) *RegistrationStore {
	return &RegistrationStore{kv: kvTable{db: db, table: "client_registration"}}
}

// Load reads the persisted registration. An absent record returns a zero
// Registration, not an error.
func (s *RegistrationStore) Load() (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.kv.get(keyClientID)
	if err != nil {
		return Registration{}, err
	}
	secret, err := s.kv.get(keyClientSecret)
	if err != nil {
		return Registration{}, err
	}

	return Registration{ClientID: id, ClientSecret: secret}, nil
}

// Save overwrites the persisted registration.
func (s *RegistrationStore) Save(reg Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.setAll(map[string]string{
		keyClientID:     reg.ClientID,
		keyClientSecret: reg.ClientSecret,
	})
}
