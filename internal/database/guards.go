package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Guard is a constraint or index the relationship rules rely on. The
// services assume these exist and do not re-check what they enforce.
type Guard struct {
	Name     string
	Protects string
	Present  bool
}

var relationshipGuards = []Guard{
	{Name: "idx_friend_requests_pending_pair", Protects: "one pending request per pair"},
	{Name: "chk_friend_requests_not_self", Protects: "no self requests"},
	{Name: "chk_friendships_order", Protects: "canonical friendship pair"},
	{Name: "chk_follows_not_self", Protects: "no self follows"},
	{Name: "chk_messages_read_state", Protects: "message read_at set iff is_read"},
	{Name: "chk_notifications_not_self", Protects: "no self notifications"},
	{Name: "chk_notifications_read_state", Protects: "notification read_at set iff is_read"},
}

// CheckGuards looks the guards up in the PostgreSQL catalog.
func CheckGuards(ctx context.Context, db *gorm.DB) ([]Guard, error) {
	var names []string
	err := db.WithContext(ctx).Raw(`SELECT conname AS name FROM pg_constraint WHERE contype = 'c'
UNION SELECT indexname AS name FROM pg_indexes WHERE schemaname = current_schema()`).
		Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	found := make(map[string]bool, len(names))
	for _, n := range names {
		found[n] = true
	}
	guards := make([]Guard, len(relationshipGuards))
	for i, g := range relationshipGuards {
		g.Present = found[g.Name]
		guards[i] = g
	}
	return guards, nil
}

// MissingGuards filters guards down to the absent ones.
func MissingGuards(guards []Guard) []Guard {
	var missing []Guard
	for _, g := range guards {
		if !g.Present {
			missing = append(missing, g)
		}
	}
	return missing
}
