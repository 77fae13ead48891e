package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/warehouse-grant/internal/adapter/handler/rpc"
	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/core/service"
)

type GRPCHandler struct {
	rpc.UnimplementedWarehouseServiceServer
	grantService *service.GrantService
	logger       *zap.Logger
}

func NewGRPCHandler(grantService *service.GrantService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{grantService: grantService, logger: logger}
}

func (h *GRPCHandler) GrantItem(ctx context.Context, req *rpc.GrantItemRequest) (*rpc.GrantItemResponse, error) {
	receipt, err := h.grantService.Grant(ctx, domain.GrantInput{
		RequestID:         req.RequestID,
		CharacterName:     req.CharacterName,
		ItemID:            req.ItemID,
		Quantity:          req.Quantity,
		SenderDescription: req.SenderDescription,
		SenderMessage:     req.SenderMessage,
	})
	if errors.Is(err, domain.ErrReconciliation) && receipt != nil {
		return &rpc.GrantItemResponse{
			Success:               true,
			Message:               pendingMessage(receipt.LabelID),
			GoodsID:               receipt.GoodsID,
			LabelID:               receipt.LabelID,
			ReconciliationPending: true,
		}, nil
	}
	if err != nil {
		f := classify(err)
		if f.code == codes.Internal {
			h.logger.Error("grant failed", zap.String("character", req.CharacterName))
			h.logger.Debug("grant failure detail", zap.Error(err))
		}
		return nil, status.Error(f.code, f.message)
	}

	return &rpc.GrantItemResponse{
		Success: true,
		Message: grantedMessage(receipt.LabelID),
		GoodsID: receipt.GoodsID,
		LabelID: receipt.LabelID,
	}, nil
}
