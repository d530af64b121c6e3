package models

import "fmt"

// PromoCode represents a percentage discount token. UsageLimit 0 means
// unlimited. UsesCount is owned by the server and may exceed UsageLimit;
// the over-limit state is displayed, never corrected here.
type PromoCode struct {
	ID              Loose   `json:"id"`
	Code            string  `json:"code"`
	Label           string  `json:"label"`
	DiscountPercent FlexInt `json:"discount"`
	UsageLimit      FlexInt `json:"usage_limit"`
	UsesCount       FlexInt `json:"uses_count"`
}

// PromoUsage is the admin view of a promo code's usage counters
type PromoUsage struct {
	Code            string `json:"code"`
	Label           string `json:"label"`
	DiscountPercent int    `json:"discount"`
	UsesCount       int    `json:"uses_count"`
	UsageLimit      int    `json:"usage_limit"`
	Unlimited       bool   `json:"unlimited"`
	OverLimit       bool   `json:"over_limit"`
	OverBy          int    `json:"over_by,omitempty"`
	Summary         string `json:"summary"`
}

// Unlimited reports whether the code has no usage ceiling
func (p *PromoCode) Unlimited() bool {
	return p.UsageLimit <= 0
}

// OverLimitBy returns how many uses exceed the limit, 0 when within it
func (p *PromoCode) OverLimitBy() int {
	if p.Unlimited() || p.UsesCount <= p.UsageLimit {
		return 0
	}
	return int(p.UsesCount - p.UsageLimit)
}

// Usage builds the admin usage view
func (p *PromoCode) Usage() PromoUsage {
	u := PromoUsage{
		Code:            p.Code,
		Label:           p.Label,
		DiscountPercent: int(p.DiscountPercent),
		UsesCount:       int(p.UsesCount),
		UsageLimit:      int(p.UsageLimit),
		Unlimited:       p.Unlimited(),
		OverBy:          p.OverLimitBy(),
	}
	u.OverLimit = u.OverBy > 0

	switch {
	case u.Unlimited:
		u.Summary = fmt.Sprintf("%d uses (unlimited)", u.UsesCount)
	case u.OverLimit:
		u.Summary = fmt.Sprintf("%d/%d (over limit by %d)", u.UsesCount, u.UsageLimit, u.OverBy)
	default:
		u.Summary = fmt.Sprintf("%d/%d", u.UsesCount, u.UsageLimit)
	}
	return u
}

// FindPromo looks a code up by exact, case-sensitive match
func FindPromo(codes []PromoCode, code string) (*PromoCode, bool) {
	if code == "" {
		return nil, false
	}
	for i := range codes {
		if codes[i].Code == code {
			return &codes[i], true
		}
	}
	return nil, false
}

// GrandDiscount is the site-wide discount percentage (0-100, two decimals)
type GrandDiscount struct {
	Percent float64 `json:"discount"`
}

// GrandDiscountRequest represents an admin update of the grand discount
type GrandDiscountRequest struct {
	Percent float64 `json:"discount"`
}
