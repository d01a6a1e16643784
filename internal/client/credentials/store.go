// Package credentials keeps the session credential (token + user) encrypted
// in local storage and mirrors the bare token into the side channel.
//
// Reads never fail: a corrupted or foreign entry is removed and reported as
// absent. Over storage.Noop every operation is a no-op.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/docdesk/internal/client/models"
	"github.com/dmitrijs2005/docdesk/internal/client/sidechannel"
	"github.com/dmitrijs2005/docdesk/internal/client/storage"
	"github.com/dmitrijs2005/docdesk/internal/common"
	"github.com/dmitrijs2005/docdesk/internal/cryptox"
	"github.com/dmitrijs2005/docdesk/internal/logging"
)

// Credential is the token + user pair identifying a session.
type Credential struct {
	Token string
	User  *models.User
}

// Store is the single owner of the persisted credential.
type Store struct {
	storage storage.Storage
	codec   *cryptox.Codec
	mirror  sidechannel.Mirror
	log     logging.Logger
	enabled bool

	// mu makes SetCredential and Clear whole operations relative to each other.
	mu sync.Mutex
}

// New wires a Store. mirror may be nil when no side channel is wanted.
func New(st storage.Storage, codec *cryptox.Codec, mirror sidechannel.Mirror, log logging.Logger) *Store {
	if mirror == nil {
		mirror = nopMirror{}
	}
	return &Store{
		storage: st,
		codec:   codec,
		mirror:  mirror,
		log:     log.With("component", "credentials"),
		enabled: !storage.IsNoop(st) && codec != nil,
	}
}

// SetCredential encrypts token and user separately, stores both in one
// atomic write and only then mirrors the plaintext token into the side
// channel. On failure nothing of the new credential is left behind.
func (s *Store) SetCredential(ctx context.Context, token string, user *models.User) error {
	if !s.enabled {
		return nil
	}
	if token == "" || user == nil {
		return common.ErrNoCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encToken, err := s.codec.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}
	encUser, err := s.codec.EncryptJSON(user)
	if err != nil {
		return fmt.Errorf("encrypt user: %w", err)
	}

	err = s.storage.SetItems(ctx, map[string]string{
		common.StorageKeyToken: encToken,
		common.StorageKeyUser:  encUser,
	})
	if err != nil {
		if derr := s.storage.Delete(ctx, common.StorageKeyToken, common.StorageKeyUser); derr != nil {
			s.log.Error(ctx, "roll back credential", "error", derr)
		}
		s.mirror.Clear()
		return fmt.Errorf("store credential: %w", err)
	}
	s.mirror.Set(token)
	s.log.Debug(ctx, "credential stored", "user_id", user.ID, "token_fp", fingerprint(token))
	return nil
}

// Restore re-mirrors a stored token into the side channel, which does not
// outlive the process. It reports whether a full credential was found.
func (s *Store) Restore(ctx context.Context) bool {
	if !s.enabled {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.Load(ctx)
	if !ok {
		s.mirror.Clear()
		return false
	}
	s.mirror.Set(cred.Token)
	s.log.Debug(ctx, "credential restored", "user_id", cred.User.ID, "token_fp", fingerprint(cred.Token))
	return true
}

// Token returns the decrypted token, or ok=false when absent or unreadable.
func (s *Store) Token(ctx context.Context) (string, bool) {
	if !s.enabled {
		return "", false
	}
	stored, ok, err := s.storage.Get(ctx, common.StorageKeyToken)
	if err != nil {
		s.log.Error(ctx, "read token", "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	token, err := s.codec.Decrypt(stored)
	if err != nil {
		s.log.Warn(ctx, "discarding unreadable token", "error", err)
		s.removeToken(ctx)
		return "", false
	}
	return token, true
}

// User returns the decrypted user record, or ok=false when absent or unreadable.
func (s *Store) User(ctx context.Context) (*models.User, bool) {
	if !s.enabled {
		return nil, false
	}
	stored, ok, err := s.storage.Get(ctx, common.StorageKeyUser)
	if err != nil {
		s.log.Error(ctx, "read user", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var u models.User
	if err := s.codec.DecryptJSON(stored, &u); err != nil {
		s.log.Warn(ctx, "discarding unreadable user", "error", err, "decryption", errors.Is(err, cryptox.ErrDecryption))
		s.removeUser(ctx)
		return nil, false
	}
	return &u, true
}

// Load returns the full credential only when both halves are readable.
func (s *Store) Load(ctx context.Context) (Credential, bool) {
	token, ok := s.Token(ctx)
	if !ok {
		return Credential{}, false
	}
	user, ok := s.User(ctx)
	if !ok {
		return Credential{}, false
	}
	return Credential{Token: token, User: user}, true
}

// IsAuthenticated reports whether a readable token exists.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.Token(ctx)
	return ok
}

// Clear removes both encrypted entries, the persisted session keys and the
// side-channel cookie. When it returns, none of them is observable.
func (s *Store) Clear(ctx context.Context) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.storage.Delete(ctx,
		common.StorageKeyToken,
		common.StorageKeyUser,
		common.StorageKeyPersistRoot,
		common.StorageKeyPersistAuth,
	)
	if err != nil {
		s.log.Error(ctx, "clear credential", "error", err)
	}
	s.mirror.Clear()
}

func (s *Store) removeToken(ctx context.Context) {
	if err := s.storage.Delete(ctx, common.StorageKeyToken); err != nil {
		s.log.Error(ctx, "remove token", "error", err)
	}
	s.mirror.Clear()
}

func (s *Store) removeUser(ctx context.Context) {
	if err := s.storage.Delete(ctx, common.StorageKeyUser); err != nil {
		s.log.Error(ctx, "remove user", "error", err)
	}
}

// TokenSource adapts the store to the API client's bearer-token lookup.
func (s *Store) TokenSource() func(ctx context.Context) (string, bool) {
	return s.Token
}

// fingerprint identifies a token in logs without revealing it.
func fingerprint(token string) string {
	return cryptox.Hash(token)[:12]
}

type nopMirror struct{}

func (nopMirror) Set(string)            {}
func (nopMirror) Clear()                {}
func (nopMirror) Token() (string, bool) { return "", false }
