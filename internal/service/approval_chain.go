package service

import (
	"github.com/pesio-ai/be-md-governance/internal/repository"
)

// Approver roles.
const (
	RoleDataSteward       = "Data Steward"
	RoleMasterDataManager = "Master Data Manager"
	RoleOperationsManager = "Operations Manager"
	RoleOperationsHead    = "Head of Operations"
	RolePricingAnalyst    = "Pricing Analyst"
	RolePricingManager    = "Pricing Manager"
	RoleFinanceDirector   = "Finance Director"
	RoleFuelAnalyst       = "Fuel Analyst"
	RoleNetworkPlanner    = "Network Planner"
	RoleFleetManager      = "Fleet Manager"
	RoleManager           = "Manager"
	RoleExecutive         = "Executive"
)

// defaultChainRole is used when a change type has no configured chain.
const defaultChainRole = RoleManager

// DefaultChainTable maps each change type to its ordered approver roles.
var DefaultChainTable = map[repository.ChangeType][]string{
	repository.ChangeLocationCreate:    {RoleDataSteward, RoleMasterDataManager},
	repository.ChangeLocationUpdate:    {RoleDataSteward},
	repository.ChangeLocationDelete:    {RoleDataSteward, RoleMasterDataManager, RoleOperationsHead},
	repository.ChangeFuelRuleCreate:    {RoleFuelAnalyst, RoleOperationsManager},
	repository.ChangeFuelRuleUpdate:    {RoleFuelAnalyst, RoleOperationsManager},
	repository.ChangeLaneCreate:        {RoleNetworkPlanner, RoleOperationsManager},
	repository.ChangeLaneRateChange:    {RolePricingAnalyst, RolePricingManager, RoleFinanceDirector},
	repository.ChangeVehicleCreate:     {RoleFleetManager},
	repository.ChangeAccessorialCreate: {RolePricingAnalyst, RolePricingManager},
}

// ChainBuilder derives approval chains from a role table.
type ChainBuilder struct {
	table map[repository.ChangeType][]string
}

// NewChainBuilder creates a builder over table; nil selects DefaultChainTable.
func NewChainBuilder(table map[repository.ChangeType][]string) *ChainBuilder {
	if table == nil {
		table = DefaultChainTable
	}
	return &ChainBuilder{table: table}
}

// BuildChain returns the ordered approval levels for a change. Unmapped change
// types get a single Manager level; CRITICAL priority appends an Executive
// level. Every level starts PENDING with no approver.
func (b *ChainBuilder) BuildChain(changeType repository.ChangeType, priority repository.Priority) []repository.ApprovalLevel {
	roles := b.table[changeType]
	if len(roles) == 0 {
		roles = []string{defaultChainRole}
	}

	levels := make([]repository.ApprovalLevel, 0, len(roles)+1)
	for _, role := range roles {
		levels = append(levels, repository.ApprovalLevel{
			Level:        len(levels) + 1,
			RequiredRole: role,
			Status:       repository.LevelPending,
		})
	}
	if priority == repository.PriorityCritical {
		levels = append(levels, repository.ApprovalLevel{
			Level:        len(levels) + 1,
			RequiredRole: RoleExecutive,
			Status:       repository.LevelPending,
		})
	}
	return levels
}

// BuildChain builds a chain from DefaultChainTable.
func BuildChain(changeType repository.ChangeType, priority repository.Priority) []repository.ApprovalLevel {
	return NewChainBuilder(nil).BuildChain(changeType, priority)
}
