package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"anoa.com/contentscore/internal/entity"
	achievementService "anoa.com/contentscore/internal/modules/achievement/service"
	achievementRepo "anoa.com/contentscore/internal/modules/achievement/repository"
	leaderboardRepo "anoa.com/contentscore/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/contentscore/internal/modules/leaderboard/service"
	ledgerRepo "anoa.com/contentscore/internal/modules/ledger/repository"
	notifService "anoa.com/contentscore/internal/modules/notification/service"
	postRepo "anoa.com/contentscore/internal/modules/post/repository"
	scoringDto "anoa.com/contentscore/internal/modules/scoring/dto"
	streakService "anoa.com/contentscore/internal/modules/streak/service"
	userRepo "anoa.com/contentscore/internal/modules/user/repository"
	"anoa.com/contentscore/pkg/apperror"
	"anoa.com/contentscore/pkg/locker"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	defaultLockTimeout   = 5 * time.Second
	recomputeConcurrency = 4
)

type ScoringService interface {
	HandlePublishEvent(ctx context.Context, userID, postID int64) (*scoringDto.ScoringResult, error)
	AdjustPoints(ctx context.Context, userID int64, points int, note string) (*scoringDto.UserScoreResponse, error)
	Recompute(ctx context.Context, userID int64) (*entity.UserScore, error)
	// RecomputeAll rebuilds every snapshot and returns how many users were processed.
	RecomputeAll(ctx context.Context) (int, error)
	GetUserScore(ctx context.Context, userID int64) (*scoringDto.UserScoreResponse, error)
	GetUserAchievements(ctx context.Context, userID int64) ([]scoringDto.AchievementResponse, error)
	GetPointHistory(ctx context.Context, userID int64, limit int) ([]scoringDto.PointTransactionResponse, error)
}

type Deps struct {
	DB           *gorm.DB
	Ledger       ledgerRepo.LedgerRepository
	Achievements achievementRepo.AchievementRepository
	Snapshots    leaderboardRepo.SnapshotRepository
	Posts        postRepo.PostRepository
	Users        userRepo.UserRepository
	Leaderboard  leaderboardService.LeaderboardService
	// Notifications is optional.
	Notifications notifService.NotificationService
	Locker        locker.Locker
	Rules         Rules
	LockTimeout   time.Duration
	Now           func() time.Time
}

type scoringService struct {
	db            *gorm.DB
	ledger        ledgerRepo.LedgerRepository
	achievements  achievementRepo.AchievementRepository
	snapshots     leaderboardRepo.SnapshotRepository
	posts         postRepo.PostRepository
	users         userRepo.UserRepository
	leaderboard   leaderboardService.LeaderboardService
	notifications notifService.NotificationService
	locker        locker.Locker
	rules         Rules
	lockTimeout   time.Duration
	now           func() time.Time
}

func NewScoringService(deps Deps) ScoringService {
	s := &scoringService{
		db:            deps.DB,
		ledger:        deps.Ledger,
		achievements:  deps.Achievements,
		snapshots:     deps.Snapshots,
		posts:         deps.Posts,
		users:         deps.Users,
		leaderboard:   deps.Leaderboard,
		notifications: deps.Notifications,
		locker:        deps.Locker,
		rules:         deps.Rules,
		lockTimeout:   deps.LockTimeout,
		now:           deps.Now,
	}
	if s.rules.Location == nil {
		s.rules.Location = time.UTC
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = defaultLockTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.locker == nil {
		s.locker = locker.NewLocalLocker()
	}
	return s
}

func lockKey(userID int64) string {
	return fmt.Sprintf("scoring:user:%d", userID)
}

// withUserLock runs fn while holding the user's scoring lock. Only acquiring
// the lock is bounded by lockTimeout.
func (s *scoringService) withUserLock(ctx context.Context, userID int64, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, lockKey(userID))
	if err != nil {
		if errors.Is(err, locker.ErrLockTimeout) {
			return apperror.New(http.StatusServiceUnavailable, "scoring is busy for this user, retry later", err)
		}
		return fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	return fn()
}

// eventOutcome is what the transactional part of an event produced.
type eventOutcome struct {
	breakdown         []scoringDto.BreakdownItem
	achievements      []scoringDto.AchievementResponse
	achievementPoints int
	streak            streakService.Result
}

func (o *eventOutcome) add(reason, label string, points int) {
	o.breakdown = append(o.breakdown, scoringDto.BreakdownItem{Reason: reason, Label: label, Points: points})
}

func (o *eventOutcome) points() int {
	total := 0
	for _, item := range o.breakdown {
		total += item.Points
	}
	return total
}

func (s *scoringService) HandlePublishEvent(ctx context.Context, userID, postID int64) (*scoringDto.ScoringResult, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, apperror.Invalid(fmt.Sprintf("post %d does not belong to user %d", postID, userID))
	}
	if !post.IsPublished() {
		return nil, apperror.Invalid(fmt.Sprintf("post %d is not published", postID))
	}

	logger := log.WithFields(log.Fields{"user_id": userID, "post_id": postID})

	var (
		outcome *eventOutcome
		result  *scoringDto.ScoringResult
		change  *totalChange
	)
	err = s.withUserLock(ctx, userID, func() error {
		var err error
		outcome, err = s.applyEvent(ctx, userID, post)
		if err != nil {
			return err
		}

		result = &scoringDto.ScoringResult{
			PointsAwarded:     outcome.points(),
			Breakdown:         outcome.breakdown,
			NewAchievements:   outcome.achievements,
			AchievementPoints: outcome.achievementPoints,
			CurrentStreak:     outcome.streak.Current,
			BestStreak:        outcome.streak.Best,
		}

		total, err := s.ledger.TotalFor(ctx, userID)
		if err != nil {
			logger.WithError(err).Warn("ledger sum failed, ledger is committed")
			result.SnapshotStale = true
			return nil
		}
		result.TotalPoints = &total
		change = &totalChange{
			before: total - int64(result.PointsAwarded+result.AchievementPoints),
			after:  total,
		}

		if err := s.refreshAfterEvent(ctx, userID, post.PublishedAt.UTC(), outcome.streak, total); err != nil {
			logger.WithError(err).Warn("snapshot refresh failed, ledger is committed")
			result.SnapshotStale = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"points":       result.PointsAwarded,
		"streak":       result.CurrentStreak,
		"achievements": len(result.NewAchievements),
	}).Info("publish event scored")

	s.afterScoreChange(ctx, userID, change, outcome.achievements)
	return result, nil
}

// applyEvent runs the ledger and achievement writes of one event in a single
// transaction. Nothing is written when it returns an error.
func (s *scoringService) applyEvent(ctx context.Context, userID int64, post *entity.Post) (*eventOutcome, error) {
	outcome := &eventOutcome{achievements: []scoringDto.AchievementResponse{}}
	postID := post.ID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		posts := s.posts.WithTx(tx)
		achievements := s.achievements.WithTx(tx)

		scored, err := ledger.HasPostAward(ctx, userID, postID)
		if err != nil {
			return err
		}
		if scored {
			return apperror.Conflict(fmt.Sprintf("post %d was already scored", postID))
		}

		priorPosts, err := ledger.CountByReason(ctx, userID, entity.ReasonPost)
		if err != nil {
			return err
		}

		// 1. Base award. The row is written even for zero points because it
		// marks the post as scored.
		if _, err := ledger.Award(ctx, userID, s.rules.BasePoints, entity.ReasonPost, &postID); err != nil {
			return err
		}
		outcome.add(entity.ReasonPost, "Published a post", s.rules.BasePoints)

		// 2. First post bonus.
		if priorPosts == 0 && s.rules.FirstPostBonus > 0 {
			if _, err := ledger.Award(ctx, userID, s.rules.FirstPostBonus, entity.ReasonFirstPostBonus, &postID); err != nil {
				return err
			}
			outcome.add(entity.ReasonFirstPostBonus, "First post bonus", s.rules.FirstPostBonus)
		}

		// 3. Streak as of the publish day of this post.
		asOf := *post.PublishedAt
		day := streakService.DayOf(asOf, s.rules.Location)
		if outcome.streak, err = s.streakAsOf(ctx, posts, userID, asOf); err != nil {
			return err
		}

		// 4. Streak bonus.
		if bonus := s.rules.StreakBonus(outcome.streak.Current); bonus > 0 {
			if _, err := ledger.Award(ctx, userID, bonus, entity.ReasonStreakBonus, &postID); err != nil {
				return err
			}
			outcome.add(entity.ReasonStreakBonus, fmt.Sprintf("%d-day streak bonus", outcome.streak.Current), bonus)
		}

		// 5. Achievements.
		weeklyPosts, err := posts.CountPublished(ctx, userID, day.AddDate(0, 0, -(s.rules.WeeklyWindowDays-1)), asOf)
		if err != nil {
			return err
		}
		earned, err := achievements.EarnedTypes(ctx, userID)
		if err != nil {
			return err
		}
		alreadyEarned := make(map[achievementService.Type]bool, len(earned))
		for t := range earned {
			alreadyEarned[achievementService.Type(t)] = true
		}

		stats := achievementService.Stats{
			TotalPosts:    int(priorPosts) + 1,
			CurrentStreak: outcome.streak.Current,
			WeeklyPosts:   int(weeklyPosts),
		}
		earnedAt := s.now().UTC()
		for _, def := range achievementService.Evaluate(stats, alreadyEarned) {
			inserted, err := achievements.Create(ctx, &entity.UserAchievement{
				UserID:        userID,
				Type:          string(def.Type),
				PointsAwarded: def.Reward,
				EarnedAt:      earnedAt,
			})
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			reason := entity.ReasonAchievementPrefix + string(def.Type)
			if _, err := ledger.Award(ctx, userID, def.Reward, reason, &postID); err != nil {
				return err
			}
			outcome.achievementPoints += def.Reward
			outcome.achievements = append(outcome.achievements, scoringDto.AchievementResponse{
				Type:          string(def.Type),
				Name:          def.Name,
				Description:   def.Description,
				PointsAwarded: def.Reward,
				EarnedAt:      earnedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *scoringService) streakAsOf(ctx context.Context, posts postRepo.PostRepository, userID int64, asOf time.Time) (streakService.Result, error) {
	loc := s.rules.Location
	from := streakService.DayOf(asOf, loc).AddDate(0, 0, -(s.rules.StreakWindowDays - 1))
	instants, err := posts.PublishTimes(ctx, userID, from, asOf)
	if err != nil {
		return streakService.Result{}, err
	}
	return streakService.Compute(instants, asOf, loc, s.rules.StreakWindowDays), nil
}

// refreshAfterEvent writes the snapshot after scoring a post published at
// asOf. When the snapshot already holds a later post, the streak is taken as
// of that post instead, so a late delivery never moves the snapshot back.
func (s *scoringService) refreshAfterEvent(ctx context.Context, userID int64, asOf time.Time, atEvent streakService.Result, total int64) error {
	state, lastPost := atEvent, asOf

	current, err := s.snapshots.Get(ctx, userID)
	switch {
	case err == nil:
		if current.LastPostDate != nil && current.LastPostDate.After(asOf) {
			lastPost = current.LastPostDate.UTC()
			if state, err = s.streakAsOf(ctx, s.posts, userID, lastPost); err != nil {
				return err
			}
		}
	case !errors.Is(err, apperror.ErrNotFound):
		return err
	}

	_, err = s.snapshots.Refresh(ctx, userID, func(score *entity.UserScore) {
		score.TotalPoints = total
		score.CurrentStreak = state.Current
		score.BestStreak = state.Best
		score.LastPostDate = &lastPost
	})
	return err
}

// refreshSnapshot writes the ledger total plus the fields set by apply into
// the user's snapshot. It returns the ledger total even when the write fails.
// Callers hold the user lock, so the total cannot move underneath it.
func (s *scoringService) refreshSnapshot(ctx context.Context, userID int64, apply func(*entity.UserScore)) (int64, error) {
	total, err := s.ledger.TotalFor(ctx, userID)
	if err != nil {
		return 0, err
	}

	_, err = s.snapshots.Refresh(ctx, userID, func(score *entity.UserScore) {
		apply(score)
		score.TotalPoints = total
	})
	return total, err
}

// totalChange is a user's ledger total around one score change.
type totalChange struct {
	before, after int64
}

// afterScoreChange sends notifications and drops cached leaderboard pages.
// A nil change skips the tier check. Failures are logged only.
func (s *scoringService) afterScoreChange(ctx context.Context, userID int64, change *totalChange, unlocked []scoringDto.AchievementResponse) {
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	if s.notifications == nil {
		return
	}

	for _, a := range unlocked {
		s.notify(ctx, &entity.Notification{
			UserID:    userID,
			Type:      entity.NotificationAchievementUnlocked,
			EntityKey: a.Type,
			Message:   fmt.Sprintf("Achievement unlocked: %s (+%d points)", a.Name, a.PointsAwarded),
		})
	}

	if change == nil {
		return
	}
	previousTier := leaderboardService.TierFor(change.before).TierName
	newTier := leaderboardService.TierFor(change.after).TierName
	if newTier != previousTier && change.after > change.before {
		s.notify(ctx, &entity.Notification{
			UserID:    userID,
			Type:      entity.NotificationTierUp,
			EntityKey: newTier,
			Message:   fmt.Sprintf("You moved up from %s to %s with %d points!", previousTier, newTier, change.after),
		})
	}
}

func (s *scoringService) notify(ctx context.Context, n *entity.Notification) {
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		log.WithError(err).WithFields(log.Fields{"user_id": n.UserID, "type": n.Type}).Warn("failed to send notification")
	}
}

func (s *scoringService) AdjustPoints(ctx context.Context, userID int64, points int, note string) (*scoringDto.UserScoreResponse, error) {
	if points == 0 {
		return nil, apperror.Invalid("points must not be zero")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	var change *totalChange
	err := s.withUserLock(ctx, userID, func() error {
		if _, err := s.ledger.Correct(ctx, userID, points, note); err != nil {
			return err
		}
		total, err := s.refreshSnapshot(ctx, userID, func(*entity.UserScore) {})
		if err != nil {
			return fmt.Errorf("correction recorded but snapshot refresh failed: %w", err)
		}
		change = &totalChange{before: total - int64(points), after: total}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "points": points, "note": note}).Info("points adjusted")
	s.afterScoreChange(ctx, userID, change, nil)
	return s.GetUserScore(ctx, userID)
}

func (s *scoringService) Recompute(ctx context.Context, userID int64) (*entity.UserScore, error) {
	var saved *entity.UserScore
	err := s.withUserLock(ctx, userID, func() error {
		total, err := s.ledger.TotalFor(ctx, userID)
		if err != nil {
			return err
		}

		now := s.now()
		from := streakService.DayOf(now, s.rules.Location).AddDate(0, 0, -(s.rules.StreakWindowDays - 1))
		instants, err := s.posts.PublishTimes(ctx, userID, from, now)
		if err != nil {
			return err
		}
		result := streakService.Compute(instants, now, s.rules.Location, s.rules.StreakWindowDays)

		saved, err = s.snapshots.Refresh(ctx, userID, func(score *entity.UserScore) {
			score.TotalPoints = total
			score.CurrentStreak = result.Current
			score.BestStreak = result.Best
			if len(instants) > 0 {
				last := instants[0].UTC()
				score.LastPostDate = &last
			}
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	return saved, nil
}

func (s *scoringService) RecomputeAll(ctx context.Context) (int, error) {
	snapshotUsers, err := s.snapshots.AllUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	ledgerUsers, err := s.ledger.UserIDs(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[int64]struct{}, len(snapshotUsers)+len(ledgerUsers))
	var userIDs []int64
	for _, id := range append(snapshotUsers, ledgerUsers...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		userIDs = append(userIDs, id)
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeConcurrency)
	for _, id := range userIDs {
		g.Go(func() error {
			if _, err := s.Recompute(gctx, id); err != nil {
				log.WithError(err).WithField("user_id", id).Warn("recompute failed")
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return len(userIDs), err
	}
	if n := failed.Load(); n > 0 {
		return len(userIDs), fmt.Errorf("recompute failed for %d of %d users", n, len(userIDs))
	}
	return len(userIDs), nil
}

func (s *scoringService) GetUserScore(ctx context.Context, userID int64) (*scoringDto.UserScoreResponse, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	resp := &scoringDto.UserScoreResponse{UserID: userID}
	score, err := s.snapshots.Get(ctx, userID)
	switch {
	case err == nil:
		resp.TotalPoints = score.TotalPoints
		resp.CurrentStreak = streakService.Decay(score.CurrentStreak, score.LastPostDate, s.now(), s.rules.Location)
		resp.BestStreak = score.BestStreak
	case errors.Is(err, apperror.ErrNotFound):
		// No events yet: zeros.
	default:
		return nil, err
	}

	counts, err := s.posts.PostCounts(ctx, []int64{userID})
	if err != nil {
		return nil, err
	}
	resp.PostCount = counts[userID]

	if resp.Rank, err = s.leaderboard.RankOf(ctx, userID); err != nil {
		return nil, err
	}
	if resp.TotalUsers, err = s.leaderboard.TotalUsers(ctx); err != nil {
		return nil, err
	}
	if resp.Tier, err = s.leaderboard.Tier(ctx, userID, resp.TotalPoints); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *scoringService) GetUserAchievements(ctx context.Context, userID int64) ([]scoringDto.AchievementResponse, error) {
	earned, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]scoringDto.AchievementResponse, 0, len(earned))
	for _, a := range earned {
		item := scoringDto.AchievementResponse{
			Type:          a.Type,
			PointsAwarded: a.PointsAwarded,
			EarnedAt:      a.EarnedAt,
		}
		if def, ok := achievementService.Lookup(achievementService.Type(a.Type)); ok {
			item.Name = def.Name
			item.Description = def.Description
		}
		resp = append(resp, item)
	}
	return resp, nil
}

// ClampHistoryLimit applies the default and upper bound to a history page size.
func ClampHistoryLimit(limit int) int {
	if limit < 1 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func (s *scoringService) GetPointHistory(ctx context.Context, userID int64, limit int) ([]scoringDto.PointTransactionResponse, error) {
	txs, err := s.ledger.History(ctx, userID, ClampHistoryLimit(limit))
	if err != nil {
		return nil, err
	}

	resp := make([]scoringDto.PointTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, scoringDto.PointTransactionResponse{
			ID:        tx.ID,
			Points:    tx.Points,
			Reason:    tx.Reason,
			PostID:    tx.PostID,
			Note:      tx.Note,
			CreatedAt: tx.CreatedAt,
		})
	}
	return resp, nil
}
