package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	leaderboardDto "anoa.com/contentscore/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/contentscore/internal/modules/leaderboard/repository"
	ledgerRepo "anoa.com/contentscore/internal/modules/ledger/repository"
	postRepo "anoa.com/contentscore/internal/modules/post/repository"
	streakService "anoa.com/contentscore/internal/modules/streak/service"
	userRepo "anoa.com/contentscore/internal/modules/user/repository"
	"anoa.com/contentscore/pkg/apperror"
	"anoa.com/contentscore/pkg/dto"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50

	cacheKey = "leaderboard:top"
	cacheTTL = 30 * time.Second
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error)
	// RankOf returns 1 + the number of users with strictly more points.
	RankOf(ctx context.Context, userID int64) (int64, error)
	TotalUsers(ctx context.Context) (int64, error)
	Tier(ctx context.Context, userID, totalPoints int64) (dto.TierStatus, error)
	Invalidate(ctx context.Context)
}

type Deps struct {
	Snapshots leaderboardRepo.SnapshotRepository
	Ledger    ledgerRepo.LedgerRepository
	Posts     postRepo.PostRepository
	Users     userRepo.UserRepository
	// Redis is optional; nil disables the cache.
	Redis    *redis.Client
	Location *time.Location
	Now      func() time.Time
}

type leaderboardService struct {
	snapshots leaderboardRepo.SnapshotRepository
	ledger    ledgerRepo.LedgerRepository
	posts     postRepo.PostRepository
	users     userRepo.UserRepository
	redis     *redis.Client
	loc       *time.Location
	now       func() time.Time

	// generation is bumped by Invalidate.
	generation atomic.Uint64
}

func NewLeaderboardService(deps Deps) LeaderboardService {
	s := &leaderboardService{
		snapshots: deps.Snapshots,
		ledger:    deps.Ledger,
		posts:     deps.Posts,
		users:     deps.Users,
		redis:     deps.Redis,
		loc:       deps.Location,
		now:       deps.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ClampLimit applies the default and upper bound to a requested page size.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	limit = ClampLimit(limit)

	if entries, ok := s.cached(ctx, limit); ok {
		return entries, nil
	}
	gen := s.generation.Load()

	scores, err := s.snapshots.Top(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(scores))
	if len(scores) == 0 {
		return entries, nil
	}

	userIDs := make([]int64, 0, len(scores))
	for _, sc := range scores {
		userIDs = append(userIDs, sc.UserID)
	}

	usernames, err := s.users.Usernames(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	postCounts, err := s.posts.PostCounts(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	weekly, err := s.ledger.WeeklyTotals(ctx, userIDs, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	var position int64
	for i, sc := range scores {
		// Ties share the position of the first user with that total.
		if i == 0 || sc.TotalPoints != scores[i-1].TotalPoints {
			position = int64(i) + 1
		}
		entries = append(entries, leaderboardDto.LeaderboardEntry{
			Position:      position,
			UserID:        sc.UserID,
			Username:      usernames[sc.UserID],
			TotalPoints:   sc.TotalPoints,
			CurrentStreak: streakService.Decay(sc.CurrentStreak, sc.LastPostDate, now, s.loc),
			BestStreak:    sc.BestStreak,
			PostCount:     postCounts[sc.UserID],
			Tier:          TierWithWeekly(sc.TotalPoints, weekly[sc.UserID]),
		})
	}

	s.store(ctx, gen, limit, entries)
	return entries, nil
}

func (s *leaderboardService) RankOf(ctx context.Context, userID int64) (int64, error) {
	var total int64
	score, err := s.snapshots.Get(ctx, userID)
	switch {
	case err == nil:
		total = score.TotalPoints
	case errors.Is(err, apperror.ErrNotFound):
		// A user without a snapshot ranks as if they had zero points.
	default:
		return 0, err
	}
	return s.snapshots.RankOf(ctx, total)
}

func (s *leaderboardService) TotalUsers(ctx context.Context) (int64, error) {
	return s.snapshots.CountUsers(ctx)
}

func (s *leaderboardService) Tier(ctx context.Context, userID, totalPoints int64) (dto.TierStatus, error) {
	weekly, err := s.ledger.WeeklyTotals(ctx, []int64{userID}, s.now().AddDate(0, 0, -7))
	if err != nil {
		return dto.TierStatus{}, err
	}
	return TierWithWeekly(totalPoints, weekly[userID]), nil
}

func (s *leaderboardService) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
		log.WithError(err).Warn("failed to invalidate leaderboard cache")
	}
}

func (s *leaderboardService) cached(ctx context.Context, limit int) ([]leaderboardDto.LeaderboardEntry, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.HGet(ctx, cacheKey, strconv.Itoa(limit)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("failed to read leaderboard cache")
		}
		return nil, false
	}
	var entries []leaderboardDto.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// invalidatedSince reports whether Invalidate ran after gen was loaded.
func (s *leaderboardService) invalidatedSince(gen uint64) bool {
	return s.generation.Load() != gen
}

// store skips pages read before a local invalidation. A page read on another
// instance can still land after our Del; cacheTTL bounds how long it lives.
func (s *leaderboardService) store(ctx context.Context, gen uint64, limit int, entries []leaderboardDto.LeaderboardEntry) {
	if s.redis == nil || s.invalidatedSince(gen) {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, cacheKey, strconv.Itoa(limit), payload)
	// All cached pages share one key and expire together.
	pipe.ExpireNX(ctx, cacheKey, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).Warn("failed to write leaderboard cache")
	}
}
