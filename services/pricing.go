package services

import "math"

// FeeSchedule is supplied per property by the property collaborator. The
// reference values below are only used when the collaborator does not state
// a fee policy of its own; nothing in the engine hardcodes them.
type FeeSchedule struct {
	ServiceFeeRate      float64 `json:"serviceFeeRate"`
	CleaningFee         float64 `json:"cleaningFee"`
	TaxRate             float64 `json:"taxRate"`
	WeeklyDiscountRate  float64 `json:"weeklyDiscountRate"`  // applied to base when nights >= 7
	MonthlyDiscountRate float64 `json:"monthlyDiscountRate"` // applied to base when nights >= 30
	Currency            string  `json:"currency"`
}

// DefaultFeeSchedule returns the reference schedule: 10% service fee, flat
// 50 cleaning fee, 8% tax, no length-of-stay discounts.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		ServiceFeeRate: 0.10,
		CleaningFee:    50,
		TaxRate:        0.08,
		Currency:       "USD",
	}
}

type PriceBreakdown struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"pricePerNight"`
	BasePrice     float64 `json:"basePrice"`
	ServiceFee    float64 `json:"serviceFee"`
	CleaningFee   float64 `json:"cleaningFee"`
	TaxAmount     float64 `json:"taxAmount"`
	FinalAmount   float64 `json:"finalAmount"`
	Discount      float64 `json:"discountApplied,omitempty"`
	DiscountTier  string  `json:"discountTier,omitempty"`
	Currency      string  `json:"currency"`
}

// Quote converts a stay into a price breakdown:
//
//	base    = nights * pricePerNight, less the one applicable stay discount
//	service = base * serviceFeeRate
//	tax     = (base + service + cleaning) * taxRate
//
// The monthly tier takes precedence over the weekly tier when both
// thresholds are met. Amounts round to the minor unit once at the end, and
// the final amount is the sum of the rounded components so the invariant
// finalAmount == basePrice + serviceFee + cleaningFee + taxAmount holds
// exactly post-rounding.
func Quote(nights int, pricePerNight float64, fs FeeSchedule) PriceBreakdown {
	base := float64(nights) * pricePerNight

	var discount float64
	var tier string
	switch {
	case nights >= 30 && fs.MonthlyDiscountRate > 0:
		discount = base * fs.MonthlyDiscountRate
		tier = "monthly"
	case nights >= 7 && fs.WeeklyDiscountRate > 0:
		discount = base * fs.WeeklyDiscountRate
		tier = "weekly"
	}
	base -= discount

	service := base * fs.ServiceFeeRate
	cleaning := fs.CleaningFee
	tax := (base + service + cleaning) * fs.TaxRate

	b := PriceBreakdown{
		Nights:        nights,
		PricePerNight: pricePerNight,
		BasePrice:     RoundMoney(base),
		ServiceFee:    RoundMoney(service),
		CleaningFee:   RoundMoney(cleaning),
		TaxAmount:     RoundMoney(tax),
		Discount:      RoundMoney(discount),
		DiscountTier:  tier,
		Currency:      fs.Currency,
	}
	b.FinalAmount = RoundMoney(b.BasePrice + b.ServiceFee + b.CleaningFee + b.TaxAmount)
	return b
}

// RoundMoney rounds to the currency's minor unit (2 decimals) half-up. The
// epsilon absorbs binary representation noise on exact half-cent values
// (2.675 stores as 2.67499...), which would otherwise round down.
func RoundMoney(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}
