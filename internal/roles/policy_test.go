package roles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/munifin/munifin/internal/shared"
)

func TestAuthorizeMatchingModule(t *testing.T) {
	role := Role{Name: "budget-officer", Module: ModuleBudget}
	require.True(t, Authorize(role, ModuleBudget))
	require.False(t, Authorize(role, ModuleAccounting))
	require.False(t, Authorize(role, ModuleTreasury))
}

func TestAuthorizeAdminCoversAllModules(t *testing.T) {
	admin := Role{Name: "administrator", Module: ModuleAdmin}
	for _, m := range []Module{ModulePlanning, ModuleBudget, ModuleAccounting, ModuleTreasury, ModuleHRIS, ModuleAdmin} {
		require.True(t, Authorize(admin, m), "admin should cover %s", m)
	}
}

func TestRequireReturnsUnauthorized(t *testing.T) {
	actor := Actor{UserID: 7, Role: Role{Name: "budget-officer", Module: ModuleBudget}}
	err := Require(actor, ModuleAccounting)
	require.Error(t, err)
	require.True(t, errors.Is(err, shared.ErrUnauthorized))
	require.NoError(t, Require(actor, ModuleBudget))
}
