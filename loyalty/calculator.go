/*
calculator.go - Tier multiplier point calculation

PURPOSE:
  Pure functions mapping a purchase amount and a customer tier to the
  points earned. No I/O, no error conditions: unknown tiers silently
  fall back to the default multiplier.

MULTIPLIER TABLE:
  Gold   -> 1.5
  Silver -> 1.2
  Bronze -> 1.1
  other  -> 1.0   (including Basic, empty, and unknown values)

FLOOR SEMANTICS:
  Fractional points are always truncated, never rounded:
  100.9 at Gold = floor(151.35) = 151. The math runs in decimal space
  so 100.9 * 1.1 cannot pick up binary-float noise before the floor.

SEE ALSO:
  - processor.go: Uses these functions when applying purchases
*/
package loyalty

import "github.com/shopspring/decimal"

var tierMultipliers = map[Tier]decimal.Decimal{
	TierGold:   decimal.NewFromFloat(1.5),
	TierSilver: decimal.NewFromFloat(1.2),
	TierBronze: decimal.NewFromFloat(1.1),
}

var defaultMultiplier = decimal.NewFromInt(1)

// Multiplier returns the earning multiplier for a tier.
// Unknown tiers use the default multiplier of 1.0.
func Multiplier(tier Tier) decimal.Decimal {
	if m, ok := tierMultipliers[tier]; ok {
		return m
	}
	return defaultMultiplier
}

// CalculatePoints returns floor(amount) - the no-tier base case.
func CalculatePoints(amount decimal.Decimal) int64 {
	return amount.Floor().IntPart()
}

// CalculatePointsWithTier returns floor(amount * multiplier(tier)).
func CalculatePointsWithTier(amount decimal.Decimal, tier Tier) int64 {
	return amount.Mul(Multiplier(tier)).Floor().IntPart()
}
