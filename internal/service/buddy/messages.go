package buddy

import "github.com/oggyb/concert-buddy/internal/matching"

type RecordSwipeRequest struct {
	EventID      string `json:"event_id" validate:"required"`
	SwipedUserID string `json:"swiped_user_id" validate:"required"`
	Interested   bool   `json:"interested"`
}

// RecordSwipeResponse reports the resulting state plus the outcome of each follow-up step.
type RecordSwipeResponse struct {
	EngagementID  uint64              `json:"engagement_id"`
	State         matching.MatchState `json:"state"`
	MatchID       string              `json:"match_id,omitempty"`
	MatchCreated  bool                `json:"match_created"`
	ChatID        string              `json:"chat_id,omitempty"`
	ChatCreated   bool                `json:"chat_created"`
	WelcomePosted bool                `json:"welcome_posted"`
	Steps         SwipeSteps          `json:"steps"`
}

type SwipeSteps struct {
	Match  matching.StepStatus `json:"match"`
	Notify matching.StepStatus `json:"notify"`
	Chat   matching.StepStatus `json:"chat"`
}

type HasSwipedOnRequest struct {
	EventID string `json:"event_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type HasSwipedOnResponse struct {
	Swiped bool `json:"swiped"`
}

type EventRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type Empty struct{}

type PotentialMatchesResponse struct {
	Candidates []matching.PotentialMatch `json:"candidates"`
}

type MatchesResponse struct {
	Matches []matching.MatchView `json:"matches"`
}

type MatchCountResponse struct {
	Count uint64 `json:"count"`
}

type ChatsResponse struct {
	Chats []matching.ChatSummary `json:"chats"`
}

type SendMessageRequest struct {
	ChatID string `json:"chat_id" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type SendMessageResponse struct {
	Message matching.MessageView `json:"message"`
}

type ListMessagesRequest struct {
	ChatID          string  `json:"chat_id" validate:"required"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

type ListMessagesResponse struct {
	Messages            []matching.MessageView `json:"messages"`
	NextPaginationToken *string                `json:"next_pagination_token,omitempty"`
}

type NotificationsResponse struct {
	Notifications []matching.NotificationView `json:"notifications"`
}

type MarkReadResponse struct {
	Updated uint64 `json:"updated"`
}
