// Package memory implements the twofactor repository with in-process maps.
// It backs the unit tests and the memory storage driver for single-replica
// or throwaway deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wicaksono/authstep/internal/pkg/goerror"
	"github.com/wicaksono/authstep/internal/twofactor/entity"
)

type Store struct {
	mu          sync.Mutex
	credentials map[int64]entity.UserCredential
	factors     map[int64]entity.SecondFactor
	backupCodes map[int64]entity.BackupCode
	sessions    map[int64]entity.Session
	byToken     map[string]int64
}

func NewStore() *Store {
	return &Store{
		credentials: make(map[int64]entity.UserCredential),
		factors:     make(map[int64]entity.SecondFactor),
		backupCodes: make(map[int64]entity.BackupCode),
		sessions:    make(map[int64]entity.Session),
		byToken:     make(map[string]int64),
	}
}

// SeedUserCredential installs a credential row. The shared identity store is
// read-only for this module, so seeding is the only write path.
func (s *Store) SeedUserCredential(cred entity.UserCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[cred.UserID] = cred
}

func (s *Store) GetUserCredential(_ context.Context, userID int64) (*entity.UserCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &cred, nil
}

func (s *Store) GetSecondFactor(_ context.Context, userID int64) (*entity.SecondFactor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	factor, ok := s.factors[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &factor, nil
}

func (s *Store) GetBackupCodes(_ context.Context, userID int64) ([]entity.BackupCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.BackupCode
	for _, bc := range s.backupCodes {
		if bc.UserID == userID {
			out = append(out, bc)
		}
	}

	return out, nil
}

func (s *Store) CountBackupCodes(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, bc := range s.backupCodes {
		if bc.UserID == userID {
			count++
		}
	}

	return count, nil
}

func (s *Store) GetSessionByToken(_ context.Context, tokenHash string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byToken[tokenHash]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	session := s.sessions[id]

	return &session, nil
}

func (s *Store) CreateSession(_ context.Context, in entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[in.ID]; ok {
		return goerror.ErrConflict
	}

	if _, ok := s.byToken[in.Token]; ok {
		return goerror.ErrConflict
	}

	s.sessions[in.ID] = in
	s.byToken[in.Token] = in.ID

	return nil
}

func (s *Store) ReplaceSecondFactor(_ context.Context, factor entity.SecondFactor, codes []entity.BackupCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	factor.Enabled = false
	s.factors[factor.UserID] = factor
	s.replaceBackupCodesLocked(factor.UserID, codes)

	return nil
}

func (s *Store) ReplaceBackupCodes(_ context.Context, userID int64, codes []entity.BackupCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceBackupCodesLocked(userID, codes)

	return nil
}

func (s *Store) EnableSecondFactor(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	factor, ok := s.factors[userID]
	if !ok || factor.Enabled {
		return false, nil
	}

	factor.Enabled = true
	s.factors[userID] = factor

	return true, nil
}

func (s *Store) IncrementSessionAttempts(_ context.Context, sessionID int64) (int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return 0, goerror.ErrNotFound
	}

	session.Attempts++
	s.sessions[sessionID] = session

	return session.Attempts, nil
}

func (s *Store) FinalizeSession(_ context.Context, sessionID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.Verified {
		return false, nil
	}

	session.Verified = true
	s.sessions[sessionID] = session

	return true, nil
}

func (s *Store) ConsumeBackupCode(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bc, ok := s.backupCodes[id]
	if !ok || bc.UserID != userID {
		return false, nil
	}

	delete(s.backupCodes, id)

	return true, nil
}

func (s *Store) DeleteSecondFactor(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.factors, userID)

	for id, bc := range s.backupCodes {
		if bc.UserID == userID {
			delete(s.backupCodes, id)
		}
	}

	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.byToken, session.Token)
			delete(s.sessions, id)
		}
	}

	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, session := range s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(s.byToken, session.Token)
			delete(s.sessions, id)
			deleted++
		}
	}

	return deleted, nil
}

func (s *Store) replaceBackupCodesLocked(userID int64, codes []entity.BackupCode) {
	for id, bc := range s.backupCodes {
		if bc.UserID == userID {
			delete(s.backupCodes, id)
		}
	}

	for _, bc := range codes {
		s.backupCodes[bc.ID] = bc
	}
}
