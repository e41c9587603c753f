package buddy_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/concert-buddy/internal/app"
	"github.com/oggyb/concert-buddy/internal/auth"
	"github.com/oggyb/concert-buddy/internal/cache"
	"github.com/oggyb/concert-buddy/internal/catalog"
	"github.com/oggyb/concert-buddy/internal/config"
	"github.com/oggyb/concert-buddy/internal/db"
	"github.com/oggyb/concert-buddy/internal/matching"
	"github.com/oggyb/concert-buddy/internal/server"
	"github.com/oggyb/concert-buddy/internal/service/buddy"
)

//
// Test helpers
//

// seedMinimalTestData inserts a small deterministic dataset.
//
// Dataset:
//   - Profiles: u1, u2, u3
//   - Events: e1 "Rooftop Sessions" by Bonobo
//   - Interests: u1, u2, u3 → e1
//   - u3 blocked by u1
func seedMinimalTestData(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	require.NoError(t, gdb.Create([]db.Profile{
		{UserID: "u1", Name: "User One"},
		{UserID: "u2", Name: "User Two"},
		{UserID: "u3", Name: "User Three"},
	}).Error)
	require.NoError(t, gdb.Create(&db.Event{ID: "e1", Title: "Rooftop Sessions", ArtistName: "Bonobo"}).Error)

	now := time.Now().UTC()
	require.NoError(t, gdb.Create([]db.EventInterest{
		{EventID: "e1", UserID: "u1", CreatedAt: now},
		{EventID: "e1", UserID: "u2", CreatedAt: now.Add(time.Second)},
		{EventID: "e1", UserID: "u3", CreatedAt: now.Add(2 * time.Second)},
	}).Error)
	require.NoError(t, gdb.Create(&db.UserBlock{UserID: "u3", BlockedByUserID: "u1"}).Error)
}

// setupService spins up an in-memory SQLite DB, applies migrations, seeds test
// data, starts a miniredis and wires everything into a buddy Service.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) (*buddy.Service, *app.AppContext) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	seedMinimalTestData(t, dbase)

	// Fake Redis
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(dbase, redisCache, logger, logger)
	store := catalog.NewStore(dbase)
	events := catalog.NewCachedEventCatalog(store, redisCache, logger)
	engine := matching.NewEngine(appCtx, store.Collaborators(events))
	return buddy.NewBuddyService(appCtx, engine), appCtx
}

func as(userID string) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status, got %v", err)
	assert.Equal(t, code, st.Code(), st.Message())
}

//
// Tests
//

// TestRecordSwipe_MutualMatch walks u1 and u2 from an invitation to a ready chat.
func TestRecordSwipe_MutualMatch(t *testing.T) {
	svc, _ := setupService(t)

	first, err := svc.RecordSwipe(as("u1"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u2", Interested: true})
	require.NoError(t, err)
	assert.Equal(t, matching.StateOneSided, first.State)
	assert.Empty(t, first.MatchID)

	second, err := svc.RecordSwipe(as("u2"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u1", Interested: true})
	require.NoError(t, err)
	assert.Equal(t, matching.StateChatReady, second.State)
	assert.True(t, second.MatchCreated)
	assert.NotEmpty(t, second.MatchID)
	assert.NotEmpty(t, second.ChatID)
	assert.True(t, second.WelcomePosted)
	assert.Equal(t, buddy.SwipeSteps{Match: matching.StepOK, Notify: matching.StepOK, Chat: matching.StepOK}, second.Steps)

	swiped, err := svc.HasSwipedOn(as("u1"), &buddy.HasSwipedOnRequest{EventID: "e1", UserID: "u2"})
	require.NoError(t, err)
	assert.True(t, swiped.Swiped)
	swiped, err = svc.HasSwipedOn(as("u1"), &buddy.HasSwipedOnRequest{EventID: "e1", UserID: "u3"})
	require.NoError(t, err)
	assert.False(t, swiped.Swiped)
	_, err = svc.HasSwipedOn(as("u1"), &buddy.HasSwipedOnRequest{EventID: "e1"})
	requireCode(t, err, codes.InvalidArgument)

	count, err := svc.GetMatchCount(as("u1"), &buddy.Empty{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Count)

	matches, err := svc.GetEventMatches(as("u1"), &buddy.EventRequest{EventID: "e1"})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, "u2", matches.Matches[0].MatchedUser.UserID)
	assert.Equal(t, "Rooftop Sessions", matches.Matches[0].Event.Title)

	notes, err := svc.ListNotifications(as("u2"), &buddy.Empty{})
	require.NoError(t, err)
	require.Len(t, notes.Notifications, 1)
	assert.Equal(t, "You matched for Rooftop Sessions (Bonobo)", notes.Notifications[0].Message)
}

// TestRecordSwipe_InputErrors checks the gRPC codes for rejected swipes.
func TestRecordSwipe_InputErrors(t *testing.T) {
	svc, _ := setupService(t)

	// missing caller is rejected as invalid input
	_, err := svc.RecordSwipe(context.Background(), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u2"})
	requireCode(t, err, codes.InvalidArgument)
	assert.Contains(t, status.Convert(err).Message(), auth.UserIDHeader)

	_, err = svc.RecordSwipe(as("u1"), &buddy.RecordSwipeRequest{SwipedUserID: "u2"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = svc.RecordSwipe(as("u1"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u1"})
	requireCode(t, err, codes.InvalidArgument)

	_, err = svc.RecordSwipe(as("u1"), &buddy.RecordSwipeRequest{EventID: "e404", SwipedUserID: "u2"})
	requireCode(t, err, codes.NotFound)

	_, err = svc.RecordSwipe(as("u1"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u404"})
	requireCode(t, err, codes.NotFound)
}

// TestGetPotentialMatches hides blocked users and flags invitations.
func TestGetPotentialMatches(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(as("u2"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u1", Interested: true})
	require.NoError(t, err)

	resp, err := svc.GetPotentialMatches(as("u1"), &buddy.EventRequest{EventID: "e1"})
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "u2", resp.Candidates[0].UserID)
	assert.True(t, resp.Candidates[0].InvitedYou)
	assert.Equal(t, matching.NeutralScore, resp.Candidates[0].CompatibilityScore)
}

// TestChatFlow sends and pages messages in the chat created by a match.
func TestChatFlow(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.RecordSwipe(as("u1"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u2", Interested: true})
	require.NoError(t, err)
	swipe, err := svc.RecordSwipe(as("u2"), &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u1", Interested: true})
	require.NoError(t, err)

	sent, err := svc.SendMessage(as("u1"), &buddy.SendMessageRequest{ChatID: swipe.ChatID, Text: "meet at the bar?"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sent.Message.SenderID)

	_, err = svc.SendMessage(as("u3"), &buddy.SendMessageRequest{ChatID: swipe.ChatID, Text: "hey"})
	requireCode(t, err, codes.NotFound)

	_, err = svc.SendMessage(as("u1"), &buddy.SendMessageRequest{ChatID: swipe.ChatID})
	requireCode(t, err, codes.InvalidArgument)

	chats, err := svc.GetChats(as("u2"), &buddy.Empty{})
	require.NoError(t, err)
	require.Len(t, chats.Chats, 1)
	assert.Equal(t, "Concert buddies · Rooftop Sessions (Bonobo)", chats.Chats[0].Name)

	msgs, err := svc.ListMessages(as("u2"), &buddy.ListMessagesRequest{ChatID: swipe.ChatID})
	require.NoError(t, err)
	assert.Len(t, msgs.Messages, 2)
	assert.Nil(t, msgs.NextPaginationToken)

	read, err := svc.MarkNotificationsRead(as("u2"), &buddy.Empty{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), read.Updated)
}

// TestOverGRPC drives the service through a real gRPC server on an in-memory
// listener, exercising the JSON codec and the x-user-id interceptor.
func TestOverGRPC(t *testing.T) {
	svc, appCtx := setupService(t)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(appCtx.Logger, registrarFunc(func(s grpc.ServiceRegistrar) {
		buddy.RegisterBuddyServer(s, svc)
	}))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	client := buddy.NewClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.GetMatchCount(ctx)
	requireCode(t, err, codes.InvalidArgument)

	u1 := metadata.AppendToOutgoingContext(ctx, auth.UserIDHeader, "u1")
	u2 := metadata.AppendToOutgoingContext(ctx, auth.UserIDHeader, "u2")

	_, err = client.RecordSwipe(u1, &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u2", Interested: true})
	require.NoError(t, err)
	resp, err := client.RecordSwipe(u2, &buddy.RecordSwipeRequest{EventID: "e1", SwipedUserID: "u1", Interested: true})
	require.NoError(t, err)
	assert.Equal(t, matching.StateChatReady, resp.State)
	assert.True(t, resp.MatchCreated)

	count, err := client.GetMatchCount(u2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Count)

	all, err := client.GetAllMatches(u1)
	require.NoError(t, err)
	require.Len(t, all.Matches, 1)
	assert.Equal(t, "User Two", all.Matches[0].MatchedUser.Name)
}

type registrarFunc func(s grpc.ServiceRegistrar)

func (f registrarFunc) Register(s grpc.ServiceRegistrar) { f(s) }
