package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophfriends.Relationships"

// Full method names.
const (
	MethodLogin            = "/" + ServiceName + "/Login"
	MethodPing             = "/" + ServiceName + "/Ping"
	MethodVerifyToken      = "/" + ServiceName + "/VerifyToken"
	MethodSendRequest      = "/" + ServiceName + "/SendRequest"
	MethodRespondRequest   = "/" + ServiceName + "/RespondRequest"
	MethodListRequests     = "/" + ServiceName + "/ListRequests"
	MethodListSentRequests = "/" + ServiceName + "/ListSentRequests"
	MethodGetRequest       = "/" + ServiceName + "/GetRequest"
	MethodRequestStats     = "/" + ServiceName + "/RequestStats"
	MethodListFriends      = "/" + ServiceName + "/ListFriends"
	MethodCheckFriendship  = "/" + ServiceName + "/CheckFriendship"
	MethodRemoveFriend     = "/" + ServiceName + "/RemoveFriend"
)

// RelationshipsServer is implemented by the gRPC transport.
type RelationshipsServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	VerifyToken(context.Context, *VerifyTokenRequest) (*VerifyTokenResponse, error)
	SendRequest(context.Context, *SendFriendRequest) (*FriendRequest, error)
	RespondRequest(context.Context, *RespondFriendRequest) (*RespondResponse, error)
	ListRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	ListSentRequests(context.Context, *ListRequestsRequest) (*ListRequestsResponse, error)
	GetRequest(context.Context, *GetRequestRequest) (*FriendRequest, error)
	RequestStats(context.Context, *RequestStatsRequest) (*RequestStatsResponse, error)
	ListFriends(context.Context, *ListFriendsRequest) (*ListFriendsResponse, error)
	CheckFriendship(context.Context, *UsernameRequest) (*CheckFriendshipResponse, error)
	RemoveFriend(context.Context, *UsernameRequest) (*RemoveFriendResponse, error)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(RelationshipsServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RelationshipsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RelationshipsServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the Relationships service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelationshipsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, RelationshipsServer.Login)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, RelationshipsServer.Ping)},
		{MethodName: "VerifyToken", Handler: unaryHandler(MethodVerifyToken, RelationshipsServer.VerifyToken)},
		{MethodName: "SendRequest", Handler: unaryHandler(MethodSendRequest, RelationshipsServer.SendRequest)},
		{MethodName: "RespondRequest", Handler: unaryHandler(MethodRespondRequest, RelationshipsServer.RespondRequest)},
		{MethodName: "ListRequests", Handler: unaryHandler(MethodListRequests, RelationshipsServer.ListRequests)},
		{MethodName: "ListSentRequests", Handler: unaryHandler(MethodListSentRequests, RelationshipsServer.ListSentRequests)},
		{MethodName: "GetRequest", Handler: unaryHandler(MethodGetRequest, RelationshipsServer.GetRequest)},
		{MethodName: "RequestStats", Handler: unaryHandler(MethodRequestStats, RelationshipsServer.RequestStats)},
		{MethodName: "ListFriends", Handler: unaryHandler(MethodListFriends, RelationshipsServer.ListFriends)},
		{MethodName: "CheckFriendship", Handler: unaryHandler(MethodCheckFriendship, RelationshipsServer.CheckFriendship)},
		{MethodName: "RemoveFriend", Handler: unaryHandler(MethodRemoveFriend, RelationshipsServer.RemoveFriend)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophfriends/relationships",
}

// RegisterRelationshipsServer registers srv on s.
func RegisterRelationshipsServer(s grpc.ServiceRegistrar, srv RelationshipsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// RelationshipsClient calls the Relationships service with the JSON codec.
type RelationshipsClient struct {
	cc grpc.ClientConnInterface
}

func NewRelationshipsClient(cc grpc.ClientConnInterface) *RelationshipsClient {
	return &RelationshipsClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RelationshipsClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *RelationshipsClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *RelationshipsClient) VerifyToken(ctx context.Context, in *VerifyTokenRequest, opts ...grpc.CallOption) (*VerifyTokenResponse, error) {
	return invoke[VerifyTokenResponse](ctx, c.cc, MethodVerifyToken, in, opts)
}

func (c *RelationshipsClient) SendRequest(ctx context.Context, in *SendFriendRequest, opts ...grpc.CallOption) (*FriendRequest, error) {
	return invoke[FriendRequest](ctx, c.cc, MethodSendRequest, in, opts)
}

func (c *RelationshipsClient) RespondRequest(ctx context.Context, in *RespondFriendRequest, opts ...grpc.CallOption) (*RespondResponse, error) {
	return invoke[RespondResponse](ctx, c.cc, MethodRespondRequest, in, opts)
}

func (c *RelationshipsClient) ListRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error) {
	return invoke[ListRequestsResponse](ctx, c.cc, MethodListRequests, in, opts)
}

func (c *RelationshipsClient) ListSentRequests(ctx context.Context, in *ListRequestsRequest, opts ...grpc.CallOption) (*ListRequestsResponse, error) {
	return invoke[ListRequestsResponse](ctx, c.cc, MethodListSentRequests, in, opts)
}

func (c *RelationshipsClient) GetRequest(ctx context.Context, in *GetRequestRequest, opts ...grpc.CallOption) (*FriendRequest, error) {
	return invoke[FriendRequest](ctx, c.cc, MethodGetRequest, in, opts)
}

func (c *RelationshipsClient) RequestStats(ctx context.Context, in *RequestStatsRequest, opts ...grpc.CallOption) (*RequestStatsResponse, error) {
	return invoke[RequestStatsResponse](ctx, c.cc, MethodRequestStats, in, opts)
}

func (c *RelationshipsClient) ListFriends(ctx context.Context, in *ListFriendsRequest, opts ...grpc.CallOption) (*ListFriendsResponse, error) {
	return invoke[ListFriendsResponse](ctx, c.cc, MethodListFriends, in, opts)
}

func (c *RelationshipsClient) CheckFriendship(ctx context.Context, in *UsernameRequest, opts ...grpc.CallOption) (*CheckFriendshipResponse, error) {
	return invoke[CheckFriendshipResponse](ctx, c.cc, MethodCheckFriendship, in, opts)
}

func (c *RelationshipsClient) RemoveFriend(ctx context.Context, in *UsernameRequest, opts ...grpc.CallOption) (*RemoveFriendResponse, error) {
	return invoke[RemoveFriendResponse](ctx, c.cc, MethodRemoveFriend, in, opts)
}
