package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"wavely/internal/config"
	database "wavely/internal/db"
	"wavely/internal/logging"
	"wavely/internal/models"
	"wavely/internal/utils"
)

// fakeMediaStore 记录释放过的媒体，可按 URL 注入失败
type fakeMediaStore struct {
	mu       sync.Mutex
	released []models.PostMedia
	fail     map[string]error
}

func (f *fakeMediaStore) Release(ctx context.Context, media models.PostMedia) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[media.URL]; ok {
		return err
	}
	f.released = append(f.released, media)
	return nil
}

func (f *fakeMediaStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

type testEnv struct {
	db      *gorm.DB
	cache   *utils.Cache
	media   *fakeMediaStore
	ledger  *VoteLedger
	manager *LifecycleManager
	feed    *FeedService
	clock   time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "wavely.db"),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cache, err := utils.NewCache(100)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	logger := logging.NewDiscardLogger()
	media := &fakeMediaStore{fail: map[string]error{}}

	env := &testEnv{
		db:    conn,
		cache: cache,
		media: media,
		ledger: NewVoteLedger(conn, cache, logger, config.VoteConfig{
			MaxRetries: 3,
			BaseDelay:  time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
		}),
		manager: NewLifecycleManager(conn, media, cache, logger),
		feed:    NewFeedService(conn, cache, logger),
		clock:   time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	env.manager.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Email: name + "@example.com", Fullname: name, Password: "hash"}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (e *testEnv) wave(t *testing.T, owner uint, name string) *models.Wave {
	t.Helper()
	w, err := e.manager.CreateWave(context.Background(), owner, name, "")
	if err != nil {
		t.Fatalf("create wave %s: %v", name, err)
	}
	return w
}

func (e *testEnv) post(t *testing.T, author uint, waveID *uint, media ...models.PostMedia) *models.Post {
	t.Helper()
	p, err := e.manager.CreatePost(context.Background(), author, waveID, "Low tide at the pier", "Anyone going?", media)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func (e *testEnv) comment(t *testing.T, author, postID uint, parent *uint) *models.Comment {
	t.Helper()
	c, err := e.manager.CreateComment(context.Background(), author, postID, "see you there", parent)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

func (e *testEnv) vote(t *testing.T, userID, targetID uint, targetType models.TargetType, action models.VoteType) *models.Vote {
	t.Helper()
	v, err := e.ledger.CastVote(context.Background(), userID, targetID, targetType, action)
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	return v
}

func (e *testEnv) reloadPost(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	if err := e.db.First(&p, id).Error; err != nil {
		t.Fatalf("reload post %d: %v", id, err)
	}
	return p
}

func (e *testEnv) reloadComment(t *testing.T, id uint) models.Comment {
	t.Helper()
	var c models.Comment
	if err := e.db.First(&c, id).Error; err != nil {
		t.Fatalf("reload comment %d: %v", id, err)
	}
	return c
}

func (e *testEnv) exists(t *testing.T, model interface{}, id uint) bool {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n > 0
}

// assertCounters 计数列必须等于投票记录数
func (e *testEnv) assertCounters(t *testing.T, targetType models.TargetType, id uint) (up, down int) {
	t.Helper()
	var ups, downs int64
	e.db.Model(&models.Vote{}).Where("target_type = ? AND target_id = ? AND type = ?", targetType, id, models.Upvote).Count(&ups)
	e.db.Model(&models.Vote{}).Where("target_type = ? AND target_id = ? AND type = ?", targetType, id, models.Downvote).Count(&downs)

	switch targetType {
	case models.TargetPost:
		p := e.reloadPost(t, id)
		up, down = p.UpvoteCount, p.DownvoteCount
	case models.TargetComment:
		c := e.reloadComment(t, id)
		up, down = c.UpvoteCount, c.DownvoteCount
	}
	if int64(up) != ups || int64(down) != downs {
		t.Fatalf("%s %d: counters up=%d down=%d but rows up=%d down=%d", targetType, id, up, down, ups, downs)
	}
	return up, down
}

func expectErr(t *testing.T, err error, targets ...error) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error matching %v, got nil", targets)
	}
	for _, target := range targets {
		if !errors.Is(err, target) {
			t.Fatalf("Expected error to match %v, got %v", target, err)
		}
	}
}

func uintPtr(v uint) *uint { return &v }

func mediaItem(n int) models.PostMedia {
	return models.PostMedia{
		URL:       fmt.Sprintf("https://cdn.example.com/wavely-media/p/%d.jpg", n),
		Kind:      models.MediaImage,
		ObjectKey: fmt.Sprintf("p/%d.jpg", n),
	}
}
