package mockapi

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/snapgram/cli/pkg/logger"
)

const (
	DemoUsername = "demo"
	DemoPassword = "password123"
)

// Seed fills the store with a demo account, users fake users and a few
// posts each. The demo account follows about half of them so its feed
// spans several pages. The same seed yields the same data.
func Seed(store *Store, users int, seed int64) error {
	// Seed only fails for unsupported source types
	_ = gofakeit.Seed(seed)
	rng := rand.New(rand.NewSource(seed))

	demo, err := store.CreateUser(DemoUsername, "Demo User", DemoPassword)
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	if _, err := store.UpdateProfile(demo.ID, demo.Name, "Just trying things out.", ""); err != nil {
		return err
	}

	now := time.Now()
	monthAgo := now.AddDate(0, 0, -30)

	created := make([]*User, 0, users)
	for len(created) < users {
		username := strings.ToLower(gofakeit.Username())
		u, err := store.CreateUser(username, gofakeit.Name(), DemoPassword)
		if errors.Is(err, ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if _, err := store.UpdateProfile(u.ID, u.Name, gofakeit.HipsterSentence(), ""); err != nil {
			return err
		}
		created = append(created, u)
	}

	for _, u := range created {
		for i := 0; i < 1+rng.Intn(5); i++ {
			at := gofakeit.DateRange(monthAgo, now)
			if _, err := store.CreatePost(u.ID, gofakeit.HipsterSentence(), "", at); err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}
		}
	}
	for i := 0; i < 3; i++ {
		at := gofakeit.DateRange(monthAgo, now)
		if _, err := store.CreatePost(demo.ID, gofakeit.HipsterSentence(), "", at); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
	}

	for i, u := range created {
		if i%2 == 0 {
			store.Follow(demo.ID, u.ID)
		}
		if rng.Intn(3) == 0 {
			store.Follow(u.ID, demo.ID)
		}
		for j := 0; j < 2; j++ {
			other := created[rng.Intn(len(created))]
			if other.ID != u.ID {
				store.Follow(u.ID, other.ID)
			}
		}
	}

	logger.Info("Seeded mock data", "users", len(created)+1, "posts", len(store.AllPosts()))
	return nil
}
