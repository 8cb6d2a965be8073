/*
schemes.go - Pre-built commission scheme configurations

PURPOSE:
  Ready-to-use schedules for the scheme codes the reference store knows.
  These seed a fresh database and serve as fixtures; operators replace
  the tier values with their own through the schedule API.

AVAILABLE SCHEMES:
  RSP - Retail, salespersons. Floor tier at 0/0%, then volume tiers.
  RTL - Retail, team leaders. Lower percentages, higher thresholds.
  ENT - Enterprise. Placeholder with only the floor tier; enterprise
        commission terms are negotiated per contract and filled in by
        operators.

FLOOR TIERS:
  Every scheme carries an explicit (0, 0%) floor so that sub-threshold
  net sales resolve through a real tier rather than the resolver's
  initialization value.
*/
package commission

import "github.com/shopspring/decimal"

// Scheme codes used as schedule IDs.
const (
	SchemeRetailSalesperson = "RSP"
	SchemeRetailTeamLeader  = "RTL"
	SchemeEnterprise        = "ENT"
)

// SchemeIDs lists every built-in scheme code.
var SchemeIDs = []string{SchemeRetailSalesperson, SchemeRetailTeamLeader, SchemeEnterprise}

func tier(label string, threshold, percent int64) CommissionTier {
	return CommissionTier{
		Label:     label,
		Threshold: decimal.NewFromInt(threshold),
		Percent:   decimal.NewFromInt(percent),
	}
}

// RetailSalespersonSchedule returns the default RSP scheme.
func RetailSalespersonSchedule() *CommissionSchedule {
	return &CommissionSchedule{
		ID:   SchemeRetailSalesperson,
		Name: "Retail - Salespersons",
		Tiers: []CommissionTier{
			tier("Base", 0, 0),
			tier("Tier 1", 1000, 5),
			tier("Tier 2", 5000, 10),
		},
	}
}

// RetailTeamLeaderSchedule returns the default RTL scheme.
func RetailTeamLeaderSchedule() *CommissionSchedule {
	return &CommissionSchedule{
		ID:   SchemeRetailTeamLeader,
		Name: "Retail - Team Leaders",
		Tiers: []CommissionTier{
			tier("Base", 0, 0),
			tier("Tier 1", 10000, 3),
			tier("Tier 2", 25000, 5),
			tier("Tier 3", 50000, 8),
		},
	}
}

// EnterpriseSchedule returns the ENT placeholder scheme.
func EnterpriseSchedule() *CommissionSchedule {
	return &CommissionSchedule{
		ID:   SchemeEnterprise,
		Name: "Enterprise",
		Tiers: []CommissionTier{
			tier("Base", 0, 0),
		},
	}
}

// DefaultSchedules returns every built-in scheme, keyed by scheme code.
func DefaultSchedules() map[string]*CommissionSchedule {
	return map[string]*CommissionSchedule{
		SchemeRetailSalesperson: RetailSalespersonSchedule(),
		SchemeRetailTeamLeader:  RetailTeamLeaderSchedule(),
		SchemeEnterprise:        EnterpriseSchedule(),
	}
}
