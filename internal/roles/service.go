package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/munifin/munifin/internal/shared"
)

var validModules = map[Module]struct{}{
	ModulePlanning:   {},
	ModuleBudget:     {},
	ModuleAccounting: {},
	ModuleTreasury:   {},
	ModuleHRIS:       {},
	ModuleAdmin:      {},
}

// Service orchestrates role management.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Create inserts a new role; only admins may manage roles.
func (s *Service) Create(ctx context.Context, actor Actor, role Role) (Role, error) {
	if err := Require(actor, ModuleAdmin); err != nil {
		return Role{}, err
	}
	role.Name = strings.TrimSpace(role.Name)
	if role.Name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	if _, ok := validModules[role.Module]; !ok {
		return Role{}, fmt.Errorf("%w: unknown module %q", shared.ErrValidation, role.Module)
	}
	return s.repo.Create(ctx, role)
}
