package airquality

import (
	"fmt"
	"strings"
)

// Plan is a caller-attached privilege level gating request size and
// city fan-out.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan maps arbitrary header input onto the closed plan set.
// Unrecognized or empty input falls back to def, and anything still
// unknown falls back to the least-privileged tier.
func ParsePlan(s string, def Plan) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		p = def
	}
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return p
	}
	return PlanFree
}

// TierLimits are the per-plan caps. All checks are boundary inclusive.
type TierLimits struct {
	ScrapeDays    int // max window for a single-city ingest
	CompareDays   int // max window for a comparison
	CompareCities int // max city fan-out per comparison
}

// TierTable maps each plan to its caps.
type TierTable map[Plan]TierLimits

// DefaultTiers returns the standard cap table.
func DefaultTiers() TierTable {
	return TierTable{
		PlanFree:       {ScrapeDays: 7, CompareDays: 7, CompareCities: 2},
		PlanPro:        {ScrapeDays: 30, CompareDays: 30, CompareCities: 5},
		PlanEnterprise: {ScrapeDays: 90, CompareDays: 90, CompareCities: 10},
	}
}

// PlanLimitError reports a request that exceeds the caller's plan
// caps. It is raised before any I/O is performed.
type PlanLimitError struct {
	Plan      Plan
	Limit     string // "days" or "cities"
	Requested int
	Allowed   int
}

func (e *PlanLimitError) Error() string {
	return fmt.Sprintf("plan %q allows at most %d %s, requested %d", e.Plan, e.Allowed, e.Limit, e.Requested)
}

// limitsFor treats an unknown plan as free rather than panicking.
func (t TierTable) limitsFor(plan Plan) TierLimits {
	if l, ok := t[plan]; ok {
		return l
	}
	return t[PlanFree]
}

// CheckScrape rejects a single-city ingest whose window exceeds the
// plan's cap.
func (t TierTable) CheckScrape(plan Plan, days int) error {
	l := t.limitsFor(plan)
	if days > l.ScrapeDays {
		return &PlanLimitError{Plan: plan, Limit: "days", Requested: days, Allowed: l.ScrapeDays}
	}
	return nil
}

// CheckCompare rejects a comparison whose city fan-out or window
// exceeds the plan's caps.
func (t TierTable) CheckCompare(plan Plan, cities, days int) error {
	l := t.limitsFor(plan)
	if cities > l.CompareCities {
		return &PlanLimitError{Plan: plan, Limit: "cities", Requested: cities, Allowed: l.CompareCities}
	}
	if days > l.CompareDays {
		return &PlanLimitError{Plan: plan, Limit: "days", Requested: days, Allowed: l.CompareDays}
	}
	return nil
}
