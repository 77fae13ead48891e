package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName     = "warehouse.v1.WarehouseService"
	GrantItemMethod = "/" + ServiceName + "/GrantItem"
)

type GrantItemRequest struct {
	RequestID         string `json:"request_id,omitempty"`
	CharacterName     string `json:"character_name"`
	ItemID            string `json:"item_id"`
	Quantity          string `json:"quantity"`
	SenderDescription string `json:"sender_description,omitempty"`
	SenderMessage     string `json:"sender_message,omitempty"`
}

type GrantItemResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	GoodsID               int64  `json:"goods_id,omitempty"`
	LabelID               int64  `json:"label_id,omitempty"`
	ReconciliationPending bool   `json:"reconciliation_pending,omitempty"`
}

type WarehouseServiceServer interface {
	GrantItem(context.Context, *GrantItemRequest) (*GrantItemResponse, error)
}

// UnimplementedWarehouseServiceServer can be embedded for forward
// compatibility.
type UnimplementedWarehouseServiceServer struct{}

func (UnimplementedWarehouseServiceServer) GrantItem(context.Context, *GrantItemRequest) (*GrantItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GrantItem not implemented")
}

func RegisterWarehouseServiceServer(s grpc.ServiceRegistrar, srv WarehouseServiceServer) {
	s.RegisterService(&WarehouseService_ServiceDesc, srv)
}

func grantItemHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GrantItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WarehouseServiceServer).GrantItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GrantItemMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WarehouseServiceServer).GrantItem(ctx, req.(*GrantItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var WarehouseService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WarehouseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GrantItem",
			Handler:    grantItemHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

type WarehouseServiceClient interface {
	GrantItem(ctx context.Context, in *GrantItemRequest, opts ...grpc.CallOption) (*GrantItemResponse, error)
}

type warehouseServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewWarehouseServiceClient(cc grpc.ClientConnInterface) WarehouseServiceClient {
	return &warehouseServiceClient{cc: cc}
}

func (c *warehouseServiceClient) GrantItem(ctx context.Context, in *GrantItemRequest, opts ...grpc.CallOption) (*GrantItemResponse, error) {
	out := new(GrantItemResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, GrantItemMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
