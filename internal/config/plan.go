package config

import "github.com/Jrmromao/costlens/internal/model"

// Default monthly spend ceilings per plan, in USD.
const (
	FreeMonthlyUSD       = 1.25
	ProMonthlyUSD        = 25.0
	EnterpriseMonthlyUSD = 500.0
)

// NearLimitFraction is the share of the monthly ceiling at which a user is
// flagged as approaching their limit.
const NearLimitFraction = 0.8

// PlanLimits maps plan tiers to their monthly spend ceilings.
type PlanLimits map[model.PlanType]float64

// DefaultPlanLimits returns the built-in plan ceilings.
func DefaultPlanLimits() PlanLimits {
	return PlanLimits{
		model.PlanFree:       FreeMonthlyUSD,
		model.PlanPro:        ProMonthlyUSD,
		model.PlanEnterprise: EnterpriseMonthlyUSD,
	}
}

// PlanLimitsFrom merges config overrides onto the built-in ceilings.
func PlanLimitsFrom(cfg Config) PlanLimits {
	limits := DefaultPlanLimits()
	if cfg.Plans.FreeUSD != nil {
		limits[model.PlanFree] = *cfg.Plans.FreeUSD
	}
	if cfg.Plans.ProUSD != nil {
		limits[model.PlanPro] = *cfg.Plans.ProUSD
	}
	if cfg.Plans.EnterpriseUSD != nil {
		limits[model.PlanEnterprise] = *cfg.Plans.EnterpriseUSD
	}
	return limits
}

// LimitFor returns the monthly ceiling for a plan, defaulting unknown plans
// to the FREE ceiling.
func (p PlanLimits) LimitFor(plan model.PlanType) float64 {
	if v, ok := p[plan]; ok {
		return v
	}
	return p[model.PlanFree]
}
