package port

import (
	"context"

	"github.com/google/uuid"
)

type CharacterDirectory interface {
	// LookupAccountID returns the owning account of a character, or domain.ErrCharacterNotFound
	LookupAccountID(ctx context.Context, characterName string) (string, error)

	// ListCharacters returns the character names owned by an account
	ListCharacters(ctx context.Context, accountID uuid.UUID) ([]string, error)
}
