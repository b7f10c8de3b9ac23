package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/camy47/pokesocial/internal/core/domain"
)

// DescribeCreature is the encounter card text.
func DescribeCreature(c domain.Creature) string {
	return fmt.Sprintf("Height: %.1fm | Weight: %.1fkg\nTypes: %s",
		float64(c.HeightDm)/10, float64(c.WeightDg)/10, strings.Join(c.Types, ", "))
}

// RelativeTime renders t as "Just now", "5m ago", "3h ago" or a date.
func RelativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return t.Local().Format("2006-01-02")
	}
}

// RenderFeed prints posts as text cards. Owned posts are attributed to
// viewer, the trainer's current identity, not the one saved at catch time.
func RenderFeed(w io.Writer, posts []domain.Post, viewer domain.Identity, now time.Time) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No Pokemon caught yet. Run `pokegram encounter` to start your journey!")
		return
	}
	for _, p := range posts {
		heart := "🤍"
		if p.LikedByViewer {
			heart = "❤️"
		}
		author, mine := p.Author.Username, ""
		if p.Owned() {
			author, mine = viewer.Username, "  (yours)"
		}
		fmt.Fprintf(w, "── %s · %s%s\n", author, p.Location, mine)
		fmt.Fprintf(w, "   %s  [%s]\n", p.Creature.DisplayName(), strings.Join(p.Creature.Types, ", "))
		fmt.Fprintf(w, "   %s\n", p.Caption)
		fmt.Fprintf(w, "   %s %d  💭 %d  · %s\n", heart, p.LikeCount, len(p.Comments), RelativeTime(now, p.CreatedAt))
		for _, c := range p.Comments {
			fmt.Fprintf(w, "     %s: %s\n", c.Author.Username, c.Text)
		}
		fmt.Fprintf(w, "   id: %s\n\n", p.ID)
	}
}

func RenderProfile(w io.Writer, p domain.Profile) {
	avatar := p.Identity.AvatarURL
	if strings.HasPrefix(avatar, "data:") {
		avatar = "(captured photo)"
	}
	fmt.Fprintf(w, "%s\n%s\navatar: %s\n", p.Identity.Username, p.Bio, avatar)
	fmt.Fprintf(w, "Caught %d · Following %d · Followers %d\n", p.Stats.Caught, p.Stats.Following, p.Stats.Followers)
}
