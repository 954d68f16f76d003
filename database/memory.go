package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/JayJosh846/wishy/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryAccountStore keeps accounts as encoded bson documents in process
// memory. It enforces the same unique keys and version check as the mongo
// store and backs STORE_DRIVER=memory and the tests.
type MemoryAccountStore struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID][]byte
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{docs: make(map[primitive.ObjectID][]byte)}
}

func (s *MemoryAccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[account.ID]; exists {
		return ErrDuplicate
	}
	if s.violatesUnique(account) {
		return ErrDuplicate
	}
	account.Version = 1
	return s.put(account)
}

func (s *MemoryAccountStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeAccount(raw)
}

func (s *MemoryAccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return a.Email == email })
}

func (s *MemoryAccountStore) FindByNickname(_ context.Context, nickname string) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return nickname != "" && a.Nickname == nickname })
}

func (s *MemoryAccountStore) FindByShareToken(_ context.Context, token string) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return token != "" && a.ShareToken == token })
}

func (s *MemoryAccountStore) FindByDepositReference(_ context.Context, reference string) (*models.Account, error) {
	return s.find(func(a *models.Account) bool { return a.Deposit(reference) != nil })
}

func (s *MemoryAccountStore) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.docs[account.ID]
	if !ok {
		return ErrConflict
	}
	stored, err := decodeAccount(raw)
	if err != nil {
		return err
	}
	if stored.Version != account.Version {
		return ErrConflict
	}
	if s.violatesUnique(account) {
		return ErrDuplicate
	}

	next := *account
	next.Version = account.Version + 1
	if err := s.put(&next); err != nil {
		return err
	}
	account.Version = next.Version
	return nil
}

func (s *MemoryAccountStore) put(account *models.Account) error {
	raw, err := bson.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	s.docs[account.ID] = raw
	return nil
}

func (s *MemoryAccountStore) find(match func(*models.Account) bool) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, raw := range s.docs {
		account, err := decodeAccount(raw)
		if err != nil {
			return nil, err
		}
		if match(account) {
			return account, nil
		}
	}
	return nil, ErrNotFound
}

// violatesUnique mirrors the unique indexes on email, nickname and shareToken.
// Callers hold the write lock.
func (s *MemoryAccountStore) violatesUnique(account *models.Account) bool {
	for id, raw := range s.docs {
		if id == account.ID {
			continue
		}
		other, err := decodeAccount(raw)
		if err != nil {
			continue
		}
		if other.Email == account.Email {
			return true
		}
		if account.Nickname != "" && other.Nickname == account.Nickname {
			return true
		}
		if account.ShareToken != "" && other.ShareToken == account.ShareToken {
			return true
		}
	}
	return false
}

func decodeAccount(raw []byte) (*models.Account, error) {
	var account models.Account
	if err := bson.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &account, nil
}

type MemoryOtpStore struct {
	mu       sync.Mutex
	sessions map[string]models.OtpSession
}

func NewMemoryOtpStore() *MemoryOtpStore {
	return &MemoryOtpStore{sessions: make(map[string]models.OtpSession)}
}

func (s *MemoryOtpStore) Create(_ context.Context, session *models.OtpSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return ErrDuplicate
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemoryOtpStore) Get(_ context.Context, id string) (*models.OtpSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *MemoryOtpStore) IncrementAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Attempts++
	s.sessions[id] = session
	return nil
}

func (s *MemoryOtpStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
