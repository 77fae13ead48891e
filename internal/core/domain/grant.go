package domain

import (
	"time"

	"github.com/google/uuid"
)

// GrantRequest is built per incoming grant call and discarded after the
// response is written.
type GrantRequest struct {
	RequestID         string
	CharacterName     string
	AccountID         uuid.UUID
	GoodsID           int64
	ItemID            int32
	Quantity          int32
	SenderDescription string
	SenderMessage     string
	PurchaseTime      time.Time
}

// Registration is the argument set handed to the warehouse registration
// procedure.
type Registration struct {
	AccountID         uuid.UUID
	GoodsID           int64
	GoodsNumber       int32
	SenderDescription string
	SenderMessage     string
	PurchaseTime      time.Time
	Slot              Slot
	ItemID            int32
	Quantity          int32
}

type GrantReceipt struct {
	GoodsID               int64
	LabelID               int64
	Slot                  Slot
	ReconciliationPending bool
}
