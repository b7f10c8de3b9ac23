package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxCreatureID is the highest creature id the creature source serves.
const MaxCreatureID = 898

// UnknownLocation is used for catches when no place could be resolved.
const UnknownLocation = "Unknown Location"

// Creature is a normalized species record from the creature source.
type Creature struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	SpriteURL string   `json:"spriteUrl"`
	HeightDm  int      `json:"heightDm"`
	WeightDg  int      `json:"weightDg"`
	Types     []string `json:"types"`
}

// DisplayName returns the name with its first letter upper-cased.
func (c Creature) DisplayName() string {
	if c.Name == "" {
		return ""
	}
	return strings.ToUpper(c.Name[:1]) + c.Name[1:]
}

// Identity is an embedded user reference: the trainer or a post/comment author.
type Identity struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// Comment is attached to synthetic posts at generation time.
type Comment struct {
	ID        string    `json:"id"`
	Author    Identity  `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a feed entry. Owner is nil for synthetic community posts.
type Post struct {
	ID            string    `json:"id"`
	Creature      Creature  `json:"creature"`
	Owner         *Identity `json:"owner"`
	Author        Identity  `json:"author"`
	Location      string    `json:"location"`
	CreatedAt     time.Time `json:"createdAt"`
	LikeCount     int       `json:"likes"`
	LikedByViewer bool      `json:"isLiked"`
	Comments      []Comment `json:"comments"`
	Caption       string    `json:"caption"`
}

// PostID builds "<creatureId>-<createdAt>" with nanosecond precision.
func PostID(creatureID int, createdAt time.Time) string {
	return fmt.Sprintf("%d-%s", creatureID, createdAt.UTC().Format(time.RFC3339Nano))
}

// Owned reports whether the post was caught by the local user.
func (p Post) Owned() bool { return p.Owner != nil }

// Stats are the profile counters. Caught is derived from the collection.
type Stats struct {
	Caught    int `json:"caught"`
	Following int `json:"following"`
	Followers int `json:"followers"`
}

// Profile is the local user's display identity.
type Profile struct {
	Identity Identity `json:"identity"`
	Bio      string   `json:"bio"`
	Stats    Stats    `json:"stats"`
}

// DefaultProfile is used when no profile has been persisted yet.
func DefaultProfile() Profile {
	return Profile{
		Identity: Identity{
			Username:  "Ash_Ketchum",
			AvatarURL: "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/25.png",
		},
		Bio: "🌟 Pokemon Trainer | Gotta catch em all! | Road to becoming a Pokemon Master",
		Stats: Stats{
			Following: 151,
			Followers: 898,
		},
	}
}

// Settings are user preferences included in exports.
type Settings struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{Theme: "light", Language: "en", Notifications: true}
}

// Export is the user-triggered download document.
type Export struct {
	UserProfile   Profile  `json:"userProfile"`
	CaughtPokemon []Post   `json:"caughtPokemon"`
	Settings      Settings `json:"settings"`
}

// Tab selects which feed view is being assembled.
type Tab string

const (
	TabHome    Tab = "home"
	TabProfile Tab = "profile"
)
