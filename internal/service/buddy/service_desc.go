package buddy

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/concert-buddy/internal/server"
)

const ServiceName = "concertbuddy.matching.v1.BuddyService"

const (
	RecordSwipeMethod           = "/" + ServiceName + "/RecordSwipe"
	GetPotentialMatchesMethod   = "/" + ServiceName + "/GetPotentialMatches"
	HasSwipedOnMethod           = "/" + ServiceName + "/HasSwipedOn"
	GetEventMatchesMethod       = "/" + ServiceName + "/GetEventMatches"
	GetAllMatchesMethod         = "/" + ServiceName + "/GetAllMatches"
	GetMatchCountMethod         = "/" + ServiceName + "/GetMatchCount"
	GetChatsMethod              = "/" + ServiceName + "/GetChats"
	SendMessageMethod           = "/" + ServiceName + "/SendMessage"
	ListMessagesMethod          = "/" + ServiceName + "/ListMessages"
	ListNotificationsMethod     = "/" + ServiceName + "/ListNotifications"
	MarkNotificationsReadMethod = "/" + ServiceName + "/MarkNotificationsRead"
)

// BuddyServer is the server API of the buddy service.
type BuddyServer interface {
	RecordSwipe(context.Context, *RecordSwipeRequest) (*RecordSwipeResponse, error)
	GetPotentialMatches(context.Context, *EventRequest) (*PotentialMatchesResponse, error)
	HasSwipedOn(context.Context, *HasSwipedOnRequest) (*HasSwipedOnResponse, error)
	GetEventMatches(context.Context, *EventRequest) (*MatchesResponse, error)
	GetAllMatches(context.Context, *Empty) (*MatchesResponse, error)
	GetMatchCount(context.Context, *Empty) (*MatchCountResponse, error)
	GetChats(context.Context, *Empty) (*ChatsResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	ListNotifications(context.Context, *Empty) (*NotificationsResponse, error)
	MarkNotificationsRead(context.Context, *Empty) (*MarkReadResponse, error)
}

// RegisterBuddyServer attaches srv to s.
func RegisterBuddyServer(s grpc.ServiceRegistrar, srv BuddyServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BuddyServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordSwipe", Handler: unary(RecordSwipeMethod, BuddyServer.RecordSwipe)},
		{MethodName: "GetPotentialMatches", Handler: unary(GetPotentialMatchesMethod, BuddyServer.GetPotentialMatches)},
		{MethodName: "HasSwipedOn", Handler: unary(HasSwipedOnMethod, BuddyServer.HasSwipedOn)},
		{MethodName: "GetEventMatches", Handler: unary(GetEventMatchesMethod, BuddyServer.GetEventMatches)},
		{MethodName: "GetAllMatches", Handler: unary(GetAllMatchesMethod, BuddyServer.GetAllMatches)},
		{MethodName: "GetMatchCount", Handler: unary(GetMatchCountMethod, BuddyServer.GetMatchCount)},
		{MethodName: "GetChats", Handler: unary(GetChatsMethod, BuddyServer.GetChats)},
		{MethodName: "SendMessage", Handler: unary(SendMessageMethod, BuddyServer.SendMessage)},
		{MethodName: "ListMessages", Handler: unary(ListMessagesMethod, BuddyServer.ListMessages)},
		{MethodName: "ListNotifications", Handler: unary(ListNotificationsMethod, BuddyServer.ListNotifications)},
		{MethodName: "MarkNotificationsRead", Handler: unary(MarkNotificationsReadMethod, BuddyServer.MarkNotificationsRead)},
	},
	Streams: []grpc.StreamDesc{},
}

// unary adapts a typed BuddyServer method to a grpc.MethodHandler, the same
// shape protoc-gen-go-grpc emits per method.
func unary[Req, Resp any](
	fullMethod string,
	call func(BuddyServer, context.Context, *Req) (*Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BuddyServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BuddyServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls the buddy service over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(server.CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecordSwipe(ctx context.Context, in *RecordSwipeRequest, opts ...grpc.CallOption) (*RecordSwipeResponse, error) {
	return invoke[RecordSwipeResponse](ctx, c.cc, RecordSwipeMethod, in, opts)
}

func (c *Client) GetPotentialMatches(ctx context.Context, in *EventRequest, opts ...grpc.CallOption) (*PotentialMatchesResponse, error) {
	return invoke[PotentialMatchesResponse](ctx, c.cc, GetPotentialMatchesMethod, in, opts)
}

func (c *Client) HasSwipedOn(ctx context.Context, in *HasSwipedOnRequest, opts ...grpc.CallOption) (*HasSwipedOnResponse, error) {
	return invoke[HasSwipedOnResponse](ctx, c.cc, HasSwipedOnMethod, in, opts)
}

func (c *Client) GetEventMatches(ctx context.Context, in *EventRequest, opts ...grpc.CallOption) (*MatchesResponse, error) {
	return invoke[MatchesResponse](ctx, c.cc, GetEventMatchesMethod, in, opts)
}

func (c *Client) GetAllMatches(ctx context.Context, opts ...grpc.CallOption) (*MatchesResponse, error) {
	return invoke[MatchesResponse](ctx, c.cc, GetAllMatchesMethod, &Empty{}, opts)
}

func (c *Client) GetMatchCount(ctx context.Context, opts ...grpc.CallOption) (*MatchCountResponse, error) {
	return invoke[MatchCountResponse](ctx, c.cc, GetMatchCountMethod, &Empty{}, opts)
}

func (c *Client) GetChats(ctx context.Context, opts ...grpc.CallOption) (*ChatsResponse, error) {
	return invoke[ChatsResponse](ctx, c.cc, GetChatsMethod, &Empty{}, opts)
}

func (c *Client) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, SendMessageMethod, in, opts)
}

func (c *Client) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ListMessagesMethod, in, opts)
}

func (c *Client) ListNotifications(ctx context.Context, opts ...grpc.CallOption) (*NotificationsResponse, error) {
	return invoke[NotificationsResponse](ctx, c.cc, ListNotificationsMethod, &Empty{}, opts)
}

func (c *Client) MarkNotificationsRead(ctx context.Context, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, MarkNotificationsReadMethod, &Empty{}, opts)
}
