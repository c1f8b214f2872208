// Package memory implementa core.Repository en memoria.
// Se usa en tests y para desarrollo local sin DB.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tunequiz/admind/internal/store/core"
)

type Store struct {
	mu sync.RWMutex

	users      map[string]core.UserRecord // uid → record
	identities map[string]core.Identity   // uid → identity
	counts     map[string]int64           // colección → cardinalidad
	logs       []core.AdminLogEntry

	// now es inyectable para tests de timestamps server-side.
	now func() time.Time
}

func New() *Store {
	return &Store{
		users:      make(map[string]core.UserRecord),
		identities: make(map[string]core.Identity),
		counts:     make(map[string]int64),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

// ─── Seeding (solo memoria; el backend de gameplay escribe esto en prod) ───

func (s *Store) PutUserRecord(u core.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UID] = u
}

func (s *Store) PutIdentity(id core.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[id.UID] = id
}

func (s *Store) SetCount(collection string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[collection] = n
}

// SetNow fija el reloj del store (tests).
func (s *Store) SetNow(now func() time.Time) { s.now = now }

// ─── core.Repository ───

func (s *Store) ListUserRecords(ctx context.Context) ([]core.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.UserRecord, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) CountCollection(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch name {
	case core.CollectionCategories, core.CollectionChallenges, core.CollectionSongs:
		return s.counts[name], nil
	}
	return 0, fmt.Errorf("count %q: %w", name, core.ErrInvalid)
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.identities {
		if strings.EqualFold(id.Email, email) {
			cp := cloneIdentity(id)
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) GetIdentityByID(ctx context.Context, uid string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[uid]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := cloneIdentity(id)
	return &cp, nil
}

func (s *Store) SetIdentityClaim(ctx context.Context, uid, claim string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.identities[uid]
	if !ok {
		return core.ErrNotFound
	}
	if id.Claims == nil {
		id.Claims = make(map[string]any)
	}
	id.Claims[claim] = value
	s.identities[uid] = id
	return nil
}

func (s *Store) AppendAdminLog(ctx context.Context, entry *core.AdminLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Timestamp = s.now()
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *Store) ListAdminLogs(ctx context.Context, limit int) ([]core.AdminLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]core.AdminLogEntry, len(s.logs))
	copy(out, s.logs)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneIdentity(id core.Identity) core.Identity {
	cp := id
	if id.Claims != nil {
		cp.Claims = make(map[string]any, len(id.Claims))
		for k, v := range id.Claims {
			cp.Claims[k] = v
		}
	}
	return cp
}
