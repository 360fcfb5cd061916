package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"wavely/internal/models"
)

func TestCastVoteStateMachine(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "author")
	voter := env.user(t, "voter")
	post := env.post(t, author.ID, nil)

	v := env.vote(t, voter.ID, post.ID, models.TargetPost, models.Upvote)
	if v == nil || v.Type != models.Upvote {
		t.Fatalf("Expected upvote, got %+v", v)
	}
	if up, down := env.assertCounters(t, models.TargetPost, post.ID); up != 1 || down != 0 {
		t.Fatalf("Expected 1/0, got %d/%d", up, down)
	}

	// 同方向再投一次即取消
	if v := env.vote(t, voter.ID, post.ID, models.TargetPost, models.Upvote); v != nil {
		t.Fatalf("Expected vote to be toggled off, got %+v", v)
	}
	if up, down := env.assertCounters(t, models.TargetPost, post.ID); up != 0 || down != 0 {
		t.Fatalf("Expected 0/0, got %d/%d", up, down)
	}

	env.vote(t, voter.ID, post.ID, models.TargetPost, models.Downvote)
	if up, down := env.assertCounters(t, models.TargetPost, post.ID); up != 0 || down != 1 {
		t.Fatalf("Expected 0/1, got %d/%d", up, down)
	}

	// 反方向改票
	v = env.vote(t, voter.ID, post.ID, models.TargetPost, models.Upvote)
	if v == nil || v.Type != models.Upvote {
		t.Fatalf("Expected switched upvote, got %+v", v)
	}
	if up, down := env.assertCounters(t, models.TargetPost, post.ID); up != 1 || down != 0 {
		t.Fatalf("Expected 1/0 after switch, got %d/%d", up, down)
	}

	var rows int64
	env.db.Model(&models.Vote{}).Where("user_id = ?", voter.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("Expected exactly one vote row, got %d", rows)
	}

	got, err := env.ledger.GetVote(context.Background(), voter.ID, post.ID, models.TargetPost)
	if err != nil || got == nil || got.Type != models.Upvote {
		t.Errorf("GetVote returned %+v, %v", got, err)
	}
}

func TestCastVoteValidation(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "author")
	post := env.post(t, author.ID, nil)

	_, err := env.ledger.CastVote(context.Background(), author.ID, post.ID, models.TargetPost, models.VoteType("sideways"))
	expectErr(t, err, ErrInvalidAction, ErrValidation)

	_, err = env.ledger.CastVote(context.Background(), author.ID, post.ID, models.TargetType("Wave"), models.Upvote)
	expectErr(t, err, ErrInvalidTarget, ErrValidation)

	_, err = env.ledger.GetVote(context.Background(), author.ID, post.ID, models.TargetType(""))
	expectErr(t, err, ErrInvalidTarget)

	env.assertCounters(t, models.TargetPost, post.ID)
}

func TestCastVoteRejectsMissingDeletedAndOrphanedTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	voter := env.user(t, "voter")

	_, err := env.ledger.CastVote(ctx, voter.ID, 999, models.TargetPost, models.Upvote)
	expectErr(t, err, ErrNotVotable, ErrForbidden)

	// 有互动的帖子被软删除
	deleted := env.post(t, author.ID, nil)
	env.vote(t, author.ID, deleted.ID, models.TargetPost, models.Upvote)
	if outcome, err := env.manager.DeletePost(ctx, author.ID, deleted.ID); err != nil || outcome != OutcomeSoft {
		t.Fatalf("DeletePost: %s, %v", outcome, err)
	}
	_, err = env.ledger.CastVote(ctx, voter.ID, deleted.ID, models.TargetPost, models.Upvote)
	expectErr(t, err, ErrNotVotable)

	// 所在 Wave 被删除后帖子成为孤立帖子
	wave := env.wave(t, author.ID, "harbour")
	orphan := env.post(t, author.ID, &wave.ID)
	if _, err := env.manager.DeleteWave(ctx, author.ID, wave.ID); err != nil {
		t.Fatalf("DeleteWave: %v", err)
	}
	_, err = env.ledger.CastVote(ctx, voter.ID, orphan.ID, models.TargetPost, models.Downvote)
	expectErr(t, err, ErrNotVotable)

	if up, down := env.assertCounters(t, models.TargetPost, orphan.ID); up != 0 || down != 0 {
		t.Errorf("Expected no counter change on orphaned post, got %d/%d", up, down)
	}
}

func TestCommentVotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	voter := env.user(t, "voter")
	post := env.post(t, author.ID, nil)
	c := env.comment(t, author.ID, post.ID, nil)

	env.vote(t, voter.ID, c.ID, models.TargetComment, models.Downvote)
	if up, down := env.assertCounters(t, models.TargetComment, c.ID); up != 0 || down != 1 {
		t.Fatalf("Expected 0/1, got %d/%d", up, down)
	}
	// 评论投票不影响帖子计数
	if up, down := env.assertCounters(t, models.TargetPost, post.ID); up != 0 || down != 0 {
		t.Fatalf("Expected post counters untouched, got %d/%d", up, down)
	}

	if _, err := env.manager.DeletePost(ctx, author.ID, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	_, err := env.ledger.CastVote(ctx, voter.ID, c.ID, models.TargetComment, models.Upvote)
	expectErr(t, err, ErrNotVotable)
	env.assertCounters(t, models.TargetComment, c.ID)
}

func TestCommentVoteRejectedWhenPostOrphaned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.user(t, "author")
	wave := env.wave(t, author.ID, "dunes")
	post := env.post(t, author.ID, &wave.ID)
	c := env.comment(t, author.ID, post.ID, nil)

	if outcome, err := env.manager.DeleteWave(ctx, author.ID, wave.ID); err != nil || outcome != OutcomeSoft {
		t.Fatalf("DeleteWave: %s, %v", outcome, err)
	}
	_, err := env.ledger.CastVote(ctx, author.ID, c.ID, models.TargetComment, models.Upvote)
	expectErr(t, err, ErrNotVotable)
}

func TestConcurrentVotersKeepCountersConsistent(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "author")
	post := env.post(t, author.ID, nil)

	const voters = 20
	users := make([]uint, voters)
	for i := range users {
		users[i] = env.user(t, "voter"+string(rune('a'+i))).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i, uid := range users {
		uid := uid
		action := models.Upvote
		if i%4 == 0 {
			action = models.Downvote
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.ledger.CastVote(context.Background(), uid, post.ID, models.TargetPost, action); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("CastVote failed: %v", err)
	}

	up, down := env.assertCounters(t, models.TargetPost, post.ID)
	if up != 15 || down != 5 {
		t.Errorf("Expected 15/5, got %d/%d", up, down)
	}
}

func TestConcurrentTogglesBySameUser(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "author")
	voter := env.user(t, "voter")
	post := env.post(t, author.ID, nil)

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.ledger.CastVote(context.Background(), voter.ID, post.ID, models.TargetPost, models.Upvote)
		}()
	}
	wg.Wait()

	// 奇数次点赞，最终一定是已赞状态
	up, down := env.assertCounters(t, models.TargetPost, post.ID)
	if up != 1 || down != 0 {
		t.Errorf("Expected 1/0 after an odd number of toggles, got %d/%d", up, down)
	}
}

func TestRandomVoteSequencesPreserveCounters(t *testing.T) {
	env := newTestEnv(t)
	author := env.user(t, "author")
	post := env.post(t, author.ID, nil)
	c := env.comment(t, author.ID, post.ID, nil)

	users := []uint{author.ID, env.user(t, "b").ID, env.user(t, "c").ID, env.user(t, "d").ID}
	actions := []models.VoteType{models.Upvote, models.Downvote}
	targets := []struct {
		id  uint
		typ models.TargetType
	}{{post.ID, models.TargetPost}, {c.ID, models.TargetComment}}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 60; i++ {
		target := targets[rng.Intn(len(targets))]
		env.vote(t, users[rng.Intn(len(users))], target.id, target.typ, actions[rng.Intn(len(actions))])
		env.assertCounters(t, target.typ, target.id)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "dup")

	err := env.db.Create(&models.User{Email: u.Email, Fullname: "again", Password: "x"}).Error
	if !isUniqueViolation(err) {
		t.Fatalf("Expected unique violation, got %v", err)
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a violation")
	}
}
