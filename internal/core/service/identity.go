package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/warehouse-grant/internal/core/domain"
	"github.com/rl1809/warehouse-grant/internal/port"
)

// IdentityResolver maps character names to owning accounts.
type IdentityResolver struct {
	directory port.CharacterDirectory
}

func NewIdentityResolver(directory port.CharacterDirectory) *IdentityResolver {
	return &IdentityResolver{directory: directory}
}

func (r *IdentityResolver) Resolve(ctx context.Context, characterName string) (uuid.UUID, error) {
	if err := domain.ValidateCharacterName(characterName); err != nil {
		return uuid.Nil, err
	}

	raw, err := r.directory.LookupAccountID(ctx, characterName)
	if errors.Is(err, domain.ErrCharacterNotFound) {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrNotFound, characterName)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup account of %s: %w", characterName, err)
	}

	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("character %s has malformed account id %q: %w", characterName, raw, err)
	}
	return accountID, nil
}

// Characters lists the character names of an account given in text form.
func (r *IdentityResolver) Characters(ctx context.Context, rawAccountID string) ([]string, error) {
	accountID, err := uuid.Parse(rawAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: account id must be a uuid", domain.ErrValidation)
	}

	names, err := r.directory.ListCharacters(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return names, nil
}
