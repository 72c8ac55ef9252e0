package services

import "testing"

func TestQuoteReferenceSchedule(t *testing.T) {
	// 3 nights at 100/night with the reference schedule:
	// base 300, service 30, cleaning 50, tax 8% of 380 = 30.40, final 410.40
	q := Quote(3, 100, DefaultFeeSchedule())

	if q.BasePrice != 300.00 {
		t.Errorf("base price = %v, want 300.00", q.BasePrice)
	}
	if q.ServiceFee != 30.00 {
		t.Errorf("service fee = %v, want 30.00", q.ServiceFee)
	}
	if q.CleaningFee != 50.00 {
		t.Errorf("cleaning fee = %v, want 50.00", q.CleaningFee)
	}
	if q.TaxAmount != 30.40 {
		t.Errorf("tax = %v, want 30.40", q.TaxAmount)
	}
	if q.FinalAmount != 410.40 {
		t.Errorf("final = %v, want 410.40", q.FinalAmount)
	}
}

func TestQuoteFinalAmountIsSumOfParts(t *testing.T) {
	schedules := []FeeSchedule{
		DefaultFeeSchedule(),
		{ServiceFeeRate: 0.12, CleaningFee: 33.33, TaxRate: 0.0825, Currency: "USD"},
		{ServiceFeeRate: 0.03, CleaningFee: 0, TaxRate: 0.19, WeeklyDiscountRate: 0.1, Currency: "EUR"},
	}
	rates := []float64{99.99, 1, 123.45, 87.77}

	for _, fs := range schedules {
		for _, rate := range rates {
			for nights := 1; nights <= 35; nights++ {
				q := Quote(nights, rate, fs)
				sum := RoundMoney(q.BasePrice + q.ServiceFee + q.CleaningFee + q.TaxAmount)
				if q.FinalAmount != sum {
					t.Fatalf("nights=%d rate=%v: final %v != sum of parts %v", nights, rate, q.FinalAmount, sum)
				}
			}
		}
	}
}

func TestQuoteStayDiscounts(t *testing.T) {
	fs := DefaultFeeSchedule()
	fs.WeeklyDiscountRate = 0.10
	fs.MonthlyDiscountRate = 0.20

	short := Quote(6, 100, fs)
	if short.DiscountTier != "" || short.Discount != 0 {
		t.Errorf("6 nights: unexpected discount %v (%s)", short.Discount, short.DiscountTier)
	}

	weekly := Quote(7, 100, fs)
	if weekly.DiscountTier != "weekly" {
		t.Errorf("7 nights: tier = %q, want weekly", weekly.DiscountTier)
	}
	if weekly.BasePrice != 630.00 { // 700 - 10%
		t.Errorf("7 nights: base = %v, want 630.00", weekly.BasePrice)
	}

	// Monthly takes precedence over weekly when both thresholds are met.
	monthly := Quote(30, 100, fs)
	if monthly.DiscountTier != "monthly" {
		t.Errorf("30 nights: tier = %q, want monthly", monthly.DiscountTier)
	}
	if monthly.BasePrice != 2400.00 { // 3000 - 20%
		t.Errorf("30 nights: base = %v, want 2400.00", monthly.BasePrice)
	}
}

func TestQuoteDiscountAppliedBeforeFees(t *testing.T) {
	fs := DefaultFeeSchedule()
	fs.WeeklyDiscountRate = 0.10

	q := Quote(7, 100, fs)
	// service fee is computed on the discounted base
	if q.ServiceFee != 63.00 {
		t.Errorf("service fee = %v, want 63.00", q.ServiceFee)
	}
	// tax on discounted base + service + cleaning = 743 * 0.08
	if q.TaxAmount != 59.44 {
		t.Errorf("tax = %v, want 59.44", q.TaxAmount)
	}
}

func TestRoundMoneyHalfUp(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{1.004, 1.00},
		{30.4, 30.40},
		{0.125, 0.13},
		{2.675, 2.68},
		{0, 0},
	}
	for _, c := range cases {
		if got := RoundMoney(c.in); got != c.want {
			t.Errorf("RoundMoney(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
