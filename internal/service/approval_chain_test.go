package service

import (
	"testing"

	"github.com/pesio-ai/be-md-governance/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roles(levels []repository.ApprovalLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = l.RequiredRole
	}
	return out
}

func TestBuildChainKnownTypes(t *testing.T) {
	assert.Equal(t, []string{RoleDataSteward, RoleMasterDataManager},
		roles(BuildChain(repository.ChangeLocationCreate, repository.PriorityMedium)))
	assert.Equal(t, []string{RolePricingAnalyst, RolePricingManager, RoleFinanceDirector},
		roles(BuildChain(repository.ChangeLaneRateChange, repository.PriorityLow)))
	assert.Equal(t, []string{RoleFuelAnalyst, RoleOperationsManager},
		roles(BuildChain(repository.ChangeFuelRuleCreate, repository.PriorityHigh)))
}

func TestBuildChainUnmappedFallsBackToManager(t *testing.T) {
	levels := BuildChain(repository.ChangeType("WAREHOUSE_CREATE"), repository.PriorityMedium)
	require.Len(t, levels, 1)
	assert.Equal(t, RoleManager, levels[0].RequiredRole)
}

func TestBuildChainCriticalAddsExecutive(t *testing.T) {
	types := append([]repository.ChangeType{"UNMAPPED"}, repository.AllChangeTypes...)
	for _, ct := range types {
		normal := BuildChain(ct, repository.PriorityMedium)
		critical := BuildChain(ct, repository.PriorityCritical)

		require.NotEmpty(t, normal, ct)
		assert.Len(t, critical, len(normal)+1, ct)
		assert.Equal(t, RoleExecutive, critical[len(critical)-1].RequiredRole, ct)
	}
}

func TestBuildChainLevelsInitialized(t *testing.T) {
	levels := BuildChain(repository.ChangeLaneRateChange, repository.PriorityCritical)
	for i, lvl := range levels {
		assert.Equal(t, i+1, lvl.Level)
		assert.Equal(t, repository.LevelPending, lvl.Status)
		assert.Nil(t, lvl.ApproverName)
		assert.Nil(t, lvl.DecidedAt)
	}
}

func TestChainBuilderCustomTable(t *testing.T) {
	b := NewChainBuilder(map[repository.ChangeType][]string{
		repository.ChangeVehicleCreate: {"Fleet Clerk", RoleFleetManager},
	})
	assert.Equal(t, []string{"Fleet Clerk", RoleFleetManager},
		roles(b.BuildChain(repository.ChangeVehicleCreate, repository.PriorityLow)))
	assert.Equal(t, []string{RoleManager},
		roles(b.BuildChain(repository.ChangeLaneCreate, repository.PriorityLow)))
}
