package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	MaxCharacterNameLength = 32
	maxSenderTextLength    = 256
)

// GrantInput carries grant fields as they arrive from a transport, before
// any numeric parsing.
type GrantInput struct {
	RequestID         string
	CharacterName     string
	ItemID            string
	Quantity          string
	SenderDescription string
	SenderMessage     string
}

// ParseGrantInput validates raw fields into a GrantRequest. It touches no
// store; AccountID and GoodsID are filled in later by the pipeline.
func ParseGrantInput(in GrantInput, now time.Time) (GrantRequest, error) {
	if err := ValidateCharacterName(in.CharacterName); err != nil {
		return GrantRequest{}, err
	}

	itemID, err := parsePositive("item id", in.ItemID)
	if err != nil {
		return GrantRequest{}, err
	}
	quantity, err := parsePositive("quantity", in.Quantity)
	if err != nil {
		return GrantRequest{}, err
	}

	if utf8.RuneCountInString(in.SenderDescription) > maxSenderTextLength {
		return GrantRequest{}, fmt.Errorf("%w: sender description exceeds %d characters", ErrValidation, maxSenderTextLength)
	}
	if utf8.RuneCountInString(in.SenderMessage) > maxSenderTextLength {
		return GrantRequest{}, fmt.Errorf("%w: sender message exceeds %d characters", ErrValidation, maxSenderTextLength)
	}

	return GrantRequest{
		RequestID:         strings.TrimSpace(in.RequestID),
		CharacterName:     in.CharacterName,
		ItemID:            itemID,
		Quantity:          quantity,
		SenderDescription: in.SenderDescription,
		SenderMessage:     in.SenderMessage,
		PurchaseTime:      now,
	}, nil
}

// ValidateCharacterName rejects names that cannot match a character.
func ValidateCharacterName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: character name is required", ErrValidation)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: character name has surrounding whitespace", ErrValidation)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: character name is not valid utf-8", ErrValidation)
	}
	if utf8.RuneCountInString(name) > MaxCharacterNameLength {
		return fmt.Errorf("%w: character name exceeds %d characters", ErrValidation, MaxCharacterNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: character name contains control characters", ErrValidation)
		}
	}
	return nil
}

func parsePositive(field, raw string) (int32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrValidation, field)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be greater than zero", ErrValidation, field)
	}
	return int32(v), nil
}
