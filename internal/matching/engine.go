package matching

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/concert-buddy/internal/app"
	"github.com/oggyb/concert-buddy/internal/cache"
	"github.com/oggyb/concert-buddy/internal/db"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
	"github.com/oggyb/concert-buddy/internal/metrics"
	"github.com/oggyb/concert-buddy/internal/repository"
	"github.com/oggyb/concert-buddy/internal/utils/pagination"
)

const (
	maxMessageLength     = 2000
	messagePageSize      = 50
	notificationPageSize = 50
	scoreConcurrency     = 4
)

type StepStatus string

const (
	StepSkipped StepStatus = "skipped"
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
)

// StepOutcome reports one follow-up step of RecordSwipe.
type StepOutcome struct {
	Status StepStatus
	Err    error
}

func skipped() StepOutcome { return StepOutcome{Status: StepSkipped} }
func succeeded() StepOutcome { return StepOutcome{Status: StepOK} }
func failed(err error) StepOutcome { return StepOutcome{Status: StepFailed, Err: err} }

// SwipeResult aggregates everything RecordSwipe did. Only the engagement write
// can fail the call; the other steps report their own outcome.
type SwipeResult struct {
	EngagementID uint64
	State        MatchState

	MatchStep    StepOutcome
	Match        *db.Relationship
	MatchCreated bool

	Notify StepOutcome

	Chat          StepOutcome
	ChatID        string
	ChatCreated   bool
	WelcomePosted bool
}

// Engine is the entry point for swipes, matches and match chats.
// Every operation takes the authenticated caller's id explicitly.
type Engine struct {
	engagements   *repository.EngagementRepository
	relationships *repository.RelationshipRepository
	notifications *repository.NotificationRepository
	chats         *repository.ChatRepository

	chatStore         ChatStore
	notificationStore NotificationStore

	detector    *MatchDetector
	scorer      *Scorer
	notifier    *NotificationDispatcher
	provisioner *ChatProvisioner

	collab Collaborators
	cache  *cache.RedisCache
	log    *slog.Logger
}

type Option func(*Engine)

// WithChatStore replaces the store the chat provisioner writes through.
func WithChatStore(s ChatStore) Option {
	return func(e *Engine) { e.chatStore = s }
}

// WithNotificationStore replaces the store match notifications are written to.
func WithNotificationStore(s NotificationStore) Option {
	return func(e *Engine) { e.notificationStore = s }
}

// NewEngine wires the engine on top of the shared DB, Redis and loggers.
func NewEngine(appCtx *app.AppContext, collab Collaborators, opts ...Option) *Engine {
	e := &Engine{
		engagements:   repository.NewEngagementRepository(appCtx.DB),
		relationships: repository.NewRelationshipRepository(appCtx.DB),
		notifications: repository.NewNotificationRepository(appCtx.DB),
		chats:         repository.NewChatRepository(appCtx.DB),
		collab:        collab,
		cache:         appCtx.RedisCache,
		log:           appCtx.Logger,
	}
	e.chatStore = e.chats
	e.notificationStore = e.notifications
	for _, opt := range opts {
		opt(e)
	}

	e.detector = NewMatchDetector(e.engagements, e.relationships, e.log)
	e.scorer = NewScorer(collab.Preferences, e.log)
	e.notifier = NewNotificationDispatcher(e.notificationStore, e.log)
	e.provisioner = NewChatProvisioner(e.chatStore, e.log, appCtx.Alerts)
	return e
}

// RecordSwipe stores the caller's decision on swipedUserID for eventID and runs
// match detection, notifications and chat provisioning for positive swipes.
//
// Behavior:
//   - Fails only when input is invalid, an id cannot be resolved, or the
//     engagement itself cannot be written.
//   - A new match notifies both users once; a retried or concurrent swipe that
//     finds the match already there does not notify again.
//   - The direct chat is provisioned on every matched outcome. This is idempotent
//     and repairs a chat step that failed on an earlier attempt.
func (e *Engine) RecordSwipe(
	ctx context.Context,
	callerID, eventID, swipedUserID string,
	interested bool,
) (SwipeResult, error) {
	if callerID == "" {
		return SwipeResult{}, svcErr.Validation("caller is not authenticated")
	}
	if eventID == "" || swipedUserID == "" {
		return SwipeResult{}, svcErr.Validation("event_id and swiped_user_id are required")
	}
	if callerID == swipedUserID {
		return SwipeResult{}, svcErr.Validation("cannot swipe on yourself")
	}

	if err := e.ensureUser(ctx, swipedUserID); err != nil {
		return SwipeResult{}, err
	}
	event, err := ResolveEvent(ctx, e.collab.Events, eventID, e.log)
	if err != nil {
		return SwipeResult{}, err
	}

	direction := db.DirectionPassed
	if interested {
		direction = db.DirectionInterested
	}
	id, err := e.engagements.RecordEngagement(ctx, callerID, swipedUserID, eventID, direction)
	if err != nil {
		e.log.Error("RecordEngagement failed", "actor", callerID, "target", swipedUserID, "err", err)
		return SwipeResult{}, svcErr.Persistence("record engagement", err)
	}
	metrics.SwipesRecorded.WithLabelValues(string(direction)).Inc()

	res := SwipeResult{
		EngagementID: id,
		State:        StateNoEngagement,
		MatchStep:    skipped(),
		Notify:       skipped(),
		Chat:         skipped(),
	}
	if !interested {
		return res, nil
	}

	outcome, err := e.detector.Detect(ctx, callerID, swipedUserID, eventID)
	if err != nil {
		e.log.Error("match detection failed", "actor", callerID, "target", swipedUserID, "event", eventID, "err", err)
		res.State = StateOneSided
		res.MatchStep = failed(err)
		return res, nil
	}
	res.MatchStep = succeeded()
	res.State = outcome.State
	if outcome.State != StateMatched {
		return res, nil
	}
	res.Match = outcome.Match
	res.MatchCreated = outcome.Created

	if outcome.Created {
		e.invalidateMatchCounts(ctx, callerID, swipedUserID)
		if err := e.notifier.DispatchMatchNotifications(ctx, callerID, swipedUserID, *outcome.Match, event); err != nil {
			e.log.Error("match notifications failed", "match_id", outcome.Match.ID, "err", err)
			res.Notify = failed(err)
		} else {
			res.Notify = succeeded()
		}
	}

	chat, err := e.provisioner.FindOrCreateDirectChat(ctx, callerID, swipedUserID, event)
	if err != nil {
		e.log.Error("chat provisioning failed", "actor", callerID, "target", swipedUserID, "err", err)
		res.Chat = failed(err)
		return res, nil
	}
	res.Chat = succeeded()
	res.ChatID = chat.ChatID
	res.ChatCreated = chat.Created
	res.WelcomePosted = chat.WelcomePosted
	res.State = StateChatReady
	return res, nil
}

// GetPotentialMatches lists users interested in eventID that the caller can still swipe on.
//
// Behavior:
//   - Excludes the caller, users the caller already swiped on for this event,
//     and users the caller blocked. A failing block check excludes the candidate.
//   - Candidates without a public profile are skipped.
//   - Keeps the attendee directory's order; scores are computed concurrently.
func (e *Engine) GetPotentialMatches(ctx context.Context, callerID, eventID string) ([]PotentialMatch, error) {
	if callerID == "" {
		return nil, svcErr.Validation("caller is not authenticated")
	}
	if eventID == "" {
		return nil, svcErr.Validation("event_id is required")
	}

	attendees, err := e.collab.Attendees.InterestedUsers(ctx, eventID)
	if err != nil {
		return nil, svcErr.Dependency("list attendees", err)
	}
	engaged, err := e.engagements.EngagedTargets(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}
	inviters, err := e.engagements.PendingInviters(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}

	candidates := make([]string, 0, len(attendees))
	for _, id := range attendees {
		if id == callerID || engaged[id] {
			continue
		}
		blocked, err := e.collab.Blocks.IsBlocked(ctx, id, callerID)
		if err != nil {
			e.log.Warn("block check failed, hiding candidate", "candidate", id, "err", err)
			continue
		}
		if blocked {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return []PotentialMatch{}, nil
	}

	profiles, err := e.collab.Profiles.GetProfiles(ctx, candidates)
	if err != nil {
		return nil, svcErr.Dependency("get profiles", err)
	}

	results := make([]*PotentialMatch, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scoreConcurrency)
	for i, id := range candidates {
		profile, ok := profiles[id]
		if !ok {
			continue
		}
		g.Go(func() error {
			score, shared := e.scorer.Compatibility(gctx, callerID, id)
			results[i] = &PotentialMatch{
				Profile:            profile,
				CompatibilityScore: score,
				SharedPreferences:  shared,
				InvitedYou:         inviters[id],
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]PotentialMatch, 0, len(results))
	for _, pm := range results {
		if pm != nil {
			out = append(out, *pm)
		}
	}
	return out, nil
}

// HasSwipedOn reports whether the caller already swiped on userID for eventID,
// in either direction.
func (e *Engine) HasSwipedOn(ctx context.Context, callerID, eventID, userID string) (bool, error) {
	if callerID == "" {
		return false, svcErr.Validation("caller is not authenticated")
	}
	if eventID == "" || userID == "" {
		return false, svcErr.Validation("event_id and user_id are required")
	}
	return e.engagements.HasEngaged(ctx, callerID, userID, eventID)
}

// GetEventMatches returns the caller's matches for one event.
func (e *Engine) GetEventMatches(ctx context.Context, callerID, eventID string) ([]MatchView, error) {
	if callerID == "" {
		return nil, svcErr.Validation("caller is not authenticated")
	}
	if eventID == "" {
		return nil, svcErr.Validation("event_id is required")
	}
	rows, err := e.relationships.ListEventMatches(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}
	return e.matchViews(ctx, rows), nil
}

// GetAllMatches returns every match of the caller, newest first.
func (e *Engine) GetAllMatches(ctx context.Context, callerID string) ([]MatchView, error) {
	if callerID == "" {
		return nil, svcErr.Validation("caller is not authenticated")
	}
	rows, err := e.relationships.ListAllMatches(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return e.matchViews(ctx, rows), nil
}

// GetMatchCount returns how many matches the caller has.
// Cache-first strategy:
//  1. Attempts to read from Redis (matches:count:userID).
//  2. On a miss or Redis error, counts in the DB.
//  3. Writes the count back with a 1h TTL unless a match invalidated the
//     caller's count while the DB was being read.
func (e *Engine) GetMatchCount(ctx context.Context, callerID string) (int64, error) {
	if callerID == "" {
		return 0, svcErr.Validation("caller is not authenticated")
	}

	var (
		version    int64
		versionErr error
	)
	if e.cache != nil {
		if n, err := e.cache.GetMatchCount(ctx, callerID); err == nil {
			return n, nil
		}
		version, versionErr = e.cache.MatchCountVersion(ctx, callerID)
	}

	count, err := e.relationships.CountMatches(ctx, callerID)
	if err != nil {
		return 0, err
	}

	if e.cache != nil && versionErr == nil {
		if err := e.cache.SetMatchCountIfUnchanged(ctx, callerID, count, version); err != nil {
			e.log.Debug("match count not cached", "user", callerID, "err", err)
		}
	}
	return count, nil
}

// GetChats returns the caller's chats, most recently active first.
func (e *Engine) GetChats(ctx context.Context, callerID string) ([]ChatSummary, error) {
	if callerID == "" {
		return nil, svcErr.Validation("caller is not authenticated")
	}

	threads, err := e.chats.ListThreadsForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	members, err := e.chats.ParticipantsOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	var others []string
	for _, users := range members {
		for _, u := range users {
			if u != callerID {
				others = append(others, u)
			}
		}
	}
	profiles := e.profilesOrIDs(ctx, others)

	out := make([]ChatSummary, 0, len(threads))
	for _, t := range threads {
		summary := ChatSummary{
			ChatID:       t.ID,
			Name:         t.Name,
			IsGroup:      t.IsGroup,
			Participants: []Profile{},
			UpdatedAt:    t.UpdatedAt,
		}
		for _, u := range members[t.ID] {
			if u != callerID {
				summary.Participants = append(summary.Participants, profiles[u])
			}
		}
		last, err := e.chats.LastMessage(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			v := messageView(*last)
			summary.LastMessage = &v
		}
		out = append(out, summary)
	}
	return out, nil
}

// SendMessage posts text from the caller into chatID.
// Chats the caller is not part of are reported as not found.
func (e *Engine) SendMessage(ctx context.Context, callerID, chatID, text string) (MessageView, error) {
	if callerID == "" {
		return MessageView{}, svcErr.Validation("caller is not authenticated")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return MessageView{}, svcErr.Validation("message text is required")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return MessageView{}, svcErr.Validation("message text is too long")
	}
	if err := e.ensureParticipant(ctx, chatID, callerID); err != nil {
		return MessageView{}, err
	}

	msg := &db.Message{ChatID: chatID, SenderID: callerID, Kind: db.MessageUser, Content: text}
	if err := e.chats.PostMessage(ctx, msg); err != nil {
		return MessageView{}, svcErr.Persistence("post message", err)
	}
	return messageView(*msg), nil
}

// ListMessages returns one page of chatID's history, newest first.
func (e *Engine) ListMessages(ctx context.Context, callerID, chatID string, pageToken *string) ([]MessageView, *string, error) {
	if callerID == "" {
		return nil, nil, svcErr.Validation("caller is not authenticated")
	}
	if pageToken != nil {
		if _, err := pagination.Decode(*pageToken); err != nil {
			return nil, nil, svcErr.Validation(err.Error())
		}
	}
	if err := e.ensureParticipant(ctx, chatID, callerID); err != nil {
		return nil, nil, err
	}

	msgs, next, err := e.chats.ListMessages(ctx, chatID, pageToken, messagePageSize)
	if err != nil {
		return nil, nil, err
	}
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView(m))
	}
	return out, next, nil
}

// ListNotifications returns the caller's newest notifications.
func (e *Engine) ListNotifications(ctx context.Context, callerID string) ([]NotificationView, error) {
	if callerID == "" {
		return nil, svcErr.Validation("caller is not authenticated")
	}
	rows, err := e.notifications.ListForUser(ctx, callerID, notificationPageSize)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationView, 0, len(rows))
	for _, n := range rows {
		out = append(out, notificationView(n))
	}
	return out, nil
}

// MarkNotificationsRead marks all of the caller's notifications as read.
func (e *Engine) MarkNotificationsRead(ctx context.Context, callerID string) (int64, error) {
	if callerID == "" {
		return 0, svcErr.Validation("caller is not authenticated")
	}
	return e.notifications.MarkAllRead(ctx, callerID)
}

// --- helpers ---

// ensureUser fails with NotFound when the profile directory does not know userID.
// A directory outage is logged and does not block the swipe.
func (e *Engine) ensureUser(ctx context.Context, userID string) error {
	profiles, err := e.collab.Profiles.GetProfiles(ctx, []string{userID})
	if err != nil {
		e.log.Warn("profile lookup failed, skipping user check", "user", userID, "err", svcErr.Dependency("get profiles", err))
		return nil
	}
	if _, ok := profiles[userID]; !ok {
		return svcErr.NotFound("user " + userID)
	}
	return nil
}

func (e *Engine) ensureParticipant(ctx context.Context, chatID, userID string) error {
	if chatID == "" {
		return svcErr.Validation("chat_id is required")
	}
	ok, err := e.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return svcErr.NotFound("chat " + chatID)
	}
	return nil
}

func (e *Engine) invalidateMatchCounts(ctx context.Context, userIDs ...string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.InvalidateMatchCounts(ctx, userIDs...); err != nil {
		e.log.Warn("match count cache invalidation failed", "users", userIDs, "err", err)
	}
}

// profilesOrIDs resolves profiles and falls back to id-only profiles when the
// directory fails or does not know a user.
func (e *Engine) profilesOrIDs(ctx context.Context, userIDs []string) map[string]Profile {
	out := make(map[string]Profile, len(userIDs))
	if len(userIDs) > 0 {
		found, err := e.collab.Profiles.GetProfiles(ctx, userIDs)
		if err != nil {
			e.log.Warn("profile lookup failed", "err", svcErr.Dependency("get profiles", err))
		}
		for id, p := range found {
			out[id] = p
		}
	}
	for _, id := range userIDs {
		if _, ok := out[id]; !ok {
			out[id] = Profile{UserID: id}
		}
	}
	return out
}

func (e *Engine) matchViews(ctx context.Context, rows []db.Relationship) []MatchView {
	others := make([]string, 0, len(rows))
	for _, r := range rows {
		others = append(others, r.RelatedUserID)
	}
	profiles := e.profilesOrIDs(ctx, others)

	events := map[string]EventInfo{}
	out := make([]MatchView, 0, len(rows))
	for _, r := range rows {
		info, ok := events[r.EventID]
		if !ok {
			var err error
			info, err = e.collab.Events.GetEvent(ctx, r.EventID)
			if err != nil {
				e.log.Warn("event lookup failed for match", "event", r.EventID, "err", err)
				info = EventInfo{Title: genericEventLabel}
			}
			info.ID = r.EventID
			events[r.EventID] = info
		}
		out = append(out, MatchView{
			MatchID:     r.ID,
			EventID:     r.EventID,
			MatchedUser: profiles[r.RelatedUserID],
			Event:       info,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}
