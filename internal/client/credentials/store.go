// Package credentials persists the bearer credential and the cached user
// profile between runs. It applies no policy: the session layer decides
// what is valid and when to clear it.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/firestation/internal/client/models"
	"github.com/dmitrijs2005/firestation/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/firestation/internal/common"
	"github.com/dmitrijs2005/firestation/internal/dbx"
)

// HeaderSetter receives the credential as the API client's default
// Authorization header.
type HeaderSetter interface {
	SetDefaultAuthorization(token string)
}

// Store keeps the credential and profile in the metadata table.
type Store struct {
	db      *sql.DB
	headers HeaderSetter
}

// NewStore returns a Store on db. headers may be nil.
func NewStore(db *sql.DB, headers HeaderSetter) *Store {
	return &Store{db: db, headers: headers}
}

// Set persists credential and profile together. An empty credential
// removes both entries. The default Authorization header follows
// credential even when persisting fails.
func (s *Store) Set(ctx context.Context, credential string, profile *models.UserProfile) error {
	if s.headers != nil {
		s.headers.SetDefaultAuthorization(credential)
	}

	if credential == "" {
		return s.Clear(ctx)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.CredentialKey, []byte(credential)); err != nil {
			return err
		}
		return putProfile(ctx, repo, profile)
	})
}

// SetProfile replaces only the cached profile.
func (s *Store) SetProfile(ctx context.Context, profile *models.UserProfile) error {
	return putProfile(ctx, metadata.NewSQLiteRepository(s.db), profile)
}

// Clear removes both entries and the default Authorization header.
func (s *Store) Clear(ctx context.Context) error {
	if s.headers != nil {
		s.headers.SetDefaultAuthorization("")
	}
	repo := metadata.NewSQLiteRepository(s.db)
	return repo.Delete(ctx, common.CredentialKey, common.ProfileKey)
}

// Load reads back what Set stored. A profile that no longer decodes is
// returned as nil rather than as an error.
func (s *Store) Load(ctx context.Context) (string, *models.UserProfile, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	raw, ok, err := repo.Get(ctx, common.CredentialKey)
	if err != nil {
		return "", nil, err
	}
	credential := ""
	if ok {
		credential = string(raw)
	}

	raw, ok, err = repo.Get(ctx, common.ProfileKey)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return credential, nil, nil
	}

	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return credential, nil, nil
	}
	return credential, &profile, nil
}

func putProfile(ctx context.Context, repo metadata.Repository, profile *models.UserProfile) error {
	if profile == nil {
		return repo.Delete(ctx, common.ProfileKey)
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return repo.Set(ctx, common.ProfileKey, b)
}
