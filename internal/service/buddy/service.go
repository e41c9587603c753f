package buddy

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/concert-buddy/internal/app"
	"github.com/oggyb/concert-buddy/internal/auth"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
	"github.com/oggyb/concert-buddy/internal/matching"
)

// Service implements the Buddy gRPC API.
// It authenticates the caller from the request context, validates input and
// delegates to the matching engine.
type Service struct {
	appCtx   *app.AppContext
	engine   *matching.Engine
	validate *validator.Validate
}

// NewBuddyService creates the Buddy service on top of an engine.
func NewBuddyService(appCtx *app.AppContext, engine *matching.Engine) *Service {
	return &Service{
		appCtx:   appCtx,
		engine:   engine,
		validate: validator.New(),
	}
}

var _ BuddyServer = (*Service)(nil)

// RecordSwipe stores the caller's swipe and reports what followed from it.
//
// Behavior:
//   - Fails only on invalid input, unknown ids, or when the swipe itself cannot be stored.
//   - Match, notification and chat steps report their status in Steps; a failed
//     step does not fail the RPC.
//
// Example:
//
//	svc.RecordSwipe(ctx, &RecordSwipeRequest{EventID: "e1", SwipedUserID: "bob", Interested: true})
func (s *Service) RecordSwipe(ctx context.Context, req *RecordSwipeRequest) (*RecordSwipeResponse, error) {
	caller, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Debug("RecordSwipe called",
		"caller", caller, "event", req.EventID, "target", req.SwipedUserID, "interested", req.Interested)

	res, err := s.engine.RecordSwipe(ctx, caller, req.EventID, req.SwipedUserID, req.Interested)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &RecordSwipeResponse{
		EngagementID:  res.EngagementID,
		State:         res.State,
		MatchCreated:  res.MatchCreated,
		ChatID:        res.ChatID,
		ChatCreated:   res.ChatCreated,
		WelcomePosted: res.WelcomePosted,
		Steps: SwipeSteps{
			Match:  res.MatchStep.Status,
			Notify: res.Notify.Status,
			Chat:   res.Chat.Status,
		},
	}
	if res.Match != nil {
		resp.MatchID = res.Match.ID
	}
	return resp, nil
}

// GetPotentialMatches lists candidates the caller can still swipe on for an event.
func (s *Service) GetPotentialMatches(ctx context.Context, req *EventRequest) (*PotentialMatchesResponse, error) {
	caller, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	candidates, err := s.engine.GetPotentialMatches(ctx, caller, req.EventID)
	if err != nil {
		s.appCtx.Logger.Error("GetPotentialMatches failed", "caller", caller, "event", req.EventID, "err", err)
		return nil, svcErr.Map(err)
	}
	return &PotentialMatchesResponse{Candidates: candidates}, nil
}

// HasSwipedOn reports whether the caller already swiped on a user for an event.
func (s *Service) HasSwipedOn(ctx context.Context, req *HasSwipedOnRequest) (*HasSwipedOnResponse, error) {
	caller, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	swiped, err := s.engine.HasSwipedOn(ctx, caller, req.EventID, req.UserID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &HasSwipedOnResponse{Swiped: swiped}, nil
}

func (s *Service) GetEventMatches(ctx context.Context, req *EventRequest) (*MatchesResponse, error) {
	caller, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	matches, err := s.engine.GetEventMatches(ctx, caller, req.EventID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &MatchesResponse{Matches: matches}, nil
}

func (s *Service) GetAllMatches(ctx context.Context, _ *Empty) (*MatchesResponse, error) {
	caller, err := s.authorize(ctx, nil)
	if err != nil {
		return nil, err
	}
	matches, err := s.engine.GetAllMatches(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &MatchesResponse{Matches: matches}, nil
}

// GetMatchCount returns how many matches the caller has, served from Redis when cached.
func (s *Service) GetMatchCount(ctx context.Context, _ *Empty) (*MatchCountResponse, error) {
	caller, err := s.authorize(ctx, nil)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.GetMatchCount(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &MatchCountResponse{Count: uint64(n)}, nil
}

func (s *Service) GetChats(ctx context.Context, _ *Empty) (*ChatsResponse, error) {
	caller, err := s.authorize(ctx, nil)
	if err != nil {
		return nil, err
	}
	chats, err := s.engine.GetChats(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ChatsResponse{Chats: chats}, nil
}

// SendMessage posts a message into one of the caller's chats.
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	caller, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	msg, err := s.engine.SendMessage(ctx, caller, req.ChatID, req.Text)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &SendMessageResponse{Message: msg}, nil
}

// ListMessages returns a page of a chat's history, newest first.
//
// Behavior:
//   - Page size is fixed at 50.
//   - NextPaginationToken is set only when older messages exist.
func (s *Service) ListMessages(ctx context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	caller, err := s.authorize(ctx, req)
	if err != nil {
		return nil, err
	}
	msgs, next, err := s.engine.ListMessages(ctx, caller, req.ChatID, req.PaginationToken)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &ListMessagesResponse{Messages: msgs, NextPaginationToken: next}, nil
}

func (s *Service) ListNotifications(ctx context.Context, _ *Empty) (*NotificationsResponse, error) {
	caller, err := s.authorize(ctx, nil)
	if err != nil {
		return nil, err
	}
	items, err := s.engine.ListNotifications(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &NotificationsResponse{Notifications: items}, nil
}

func (s *Service) MarkNotificationsRead(ctx context.Context, _ *Empty) (*MarkReadResponse, error) {
	caller, err := s.authorize(ctx, nil)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MarkNotificationsRead(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &MarkReadResponse{Updated: uint64(n)}, nil
}

// authorize returns the caller id and validates req when it is non-nil.
// A missing caller is a validation error, the same as in the engine.
func (s *Service) authorize(ctx context.Context, req any) (string, error) {
	caller := auth.UserIDFromContext(ctx)
	if caller == "" {
		return "", svcErr.Map(svcErr.Validation(fmt.Sprintf("%s metadata is required", auth.UserIDHeader)))
	}
	if req != nil {
		if err := s.validate.Struct(req); err != nil {
			return "", svcErr.InvalidArgument(err.Error())
		}
	}
	return caller, nil
}
