package profile

import (
	"encoding/json"
	"sync"

	"github.com/camy47/pokesocial/internal/core/domain"
	"github.com/camy47/pokesocial/internal/core/ports"

	"go.uber.org/zap"
)

const (
	KeyProfile  = "userProfile"
	KeySettings = "settings"
)

// State owns the user's profile. Stats.Caught is never edited directly; it
// is derived from the collection size reported through CollectionChanged.
type State struct {
	kv     ports.KeyValueStore
	logger *zap.Logger

	mu      sync.RWMutex
	profile domain.Profile
	caught  int
}

func NewState(kv ports.KeyValueStore, logger *zap.Logger) *State {
	s := &State{kv: kv, logger: logger, profile: domain.DefaultProfile()}

	raw, ok, err := kv.Get(KeyProfile)
	switch {
	case err != nil:
		logger.Warn("Failed to read profile, using default", zap.Error(err))
	case ok:
		var p domain.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			logger.Warn("Profile is corrupt, using default", zap.Error(err))
		} else {
			s.profile = p
		}
	}
	s.caught = s.profile.Stats.Caught
	return s
}

// WithCaught returns p with its caught counter set to the collection size.
func WithCaught(p domain.Profile, collectionLen int) domain.Profile {
	p.Stats.Caught = collectionLen
	return p
}

func (s *State) Snapshot() domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return WithCaught(s.profile, s.caught)
}

func (s *State) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Identity
}

// CollectionChanged records the new collection size and persists the
// profile when the derived counter moved.
func (s *State) CollectionChanged(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count == s.caught && s.profile.Stats.Caught == count {
		return
	}
	s.caught = count
	s.profile = WithCaught(s.profile, count)
	s.persist()
}

func (s *State) SetUsername(username string) {
	s.update(func(p *domain.Profile) { p.Identity.Username = username })
}

func (s *State) SetBio(bio string) {
	s.update(func(p *domain.Profile) { p.Bio = bio })
}

// SetAvatar overwrites the avatar, typically with a captured data URL.
func (s *State) SetAvatar(avatarURL string) {
	s.update(func(p *domain.Profile) { p.Identity.AvatarURL = avatarURL })
}

func (s *State) update(fn func(p *domain.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.profile
	fn(&next)
	s.profile = WithCaught(next, s.caught)
	s.persist()
}

func (s *State) persist() {
	data, err := json.Marshal(s.profile)
	if err != nil {
		s.logger.Error("Failed to encode profile", zap.Error(err))
		return
	}
	if err := s.kv.Set(KeyProfile, string(data)); err != nil {
		s.logger.Warn("Failed to persist profile", zap.Error(err))
	}
}

// LoadSettings reads user preferences, falling back to defaults.
func LoadSettings(kv ports.KeyValueStore, logger *zap.Logger) domain.Settings {
	raw, ok, err := kv.Get(KeySettings)
	if err != nil || !ok {
		return domain.DefaultSettings()
	}
	var st domain.Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		logger.Warn("Settings are corrupt, using defaults", zap.Error(err))
		return domain.DefaultSettings()
	}
	return st
}

func SaveSettings(kv ports.KeyValueStore, st domain.Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return kv.Set(KeySettings, string(data))
}
