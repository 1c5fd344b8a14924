// Package commission holds the pure pricing rules: margin-based milestone
// commission, deal tiers, upfront flat pay and manager overrides.
package commission

import (
	"math"

	"deal-workers/internal/models"
)

// Inputs are the attributes the milestone commission depends on.
type Inputs struct {
	SystemSizeKw      *float64
	GrossPricePerWatt *float64
	Adders            models.Adders
	PayType           models.PayType
}

// Breakdown shows every intermediate figure of a milestone calculation.
type Breakdown struct {
	Priced              bool    `json:"priced"`
	ContractPrice       float64 `json:"contractPrice"`
	BaseCost            float64 `json:"baseCost"`
	AdderCost           float64 `json:"adderCost"`
	TotalCost           float64 `json:"totalCost"`
	CommissionAmount    float64 `json:"commissionAmount"`
	Rate                float64 `json:"rate"`
	MilestoneCommission float64 `json:"milestoneCommission"`
}

// InputsFor builds calculator inputs from a stored project.
func InputsFor(p *models.Project, payType models.PayType) Inputs {
	return Inputs{
		SystemSizeKw:      p.SystemSizeKw,
		GrossPricePerWatt: p.GrossPricePerWatt,
		Adders:            p.Adders,
		PayType:           payType,
	}
}

// IsPriced reports whether both numeric inputs are present and finite.
// A zero commission on an unpriced project means "no data", not "no margin".
func IsPriced(size, ppw *float64) bool {
	return finite(size) && finite(ppw)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// ContractPrice is grossPricePerWatt × systemSizeKw × 1000.
func ContractPrice(systemSizeKw, grossPricePerWatt float64) float64 {
	return grossPricePerWatt * systemSizeKw * wattsPerKw
}

// BaseCost is systemSizeKw × 3500.
func BaseCost(systemSizeKw float64) float64 {
	return systemSizeKw * baseCostPerKw
}

// AdderCost sums the fixed price of every selected adder.
func AdderCost(a models.Adders) float64 {
	var total float64
	for _, name := range SelectedAdders(a) {
		total += adderPrices[name]
	}
	return total
}

// Calculate runs the full milestone computation. Unpriced inputs yield a
// zero Breakdown with Priced=false.
func Calculate(in Inputs) Breakdown {
	if !IsPriced(in.SystemSizeKw, in.GrossPricePerWatt) {
		return Breakdown{Rate: PayTypeRate(in.PayType)}
	}
	size, ppw := *in.SystemSizeKw, *in.GrossPricePerWatt

	b := Breakdown{Priced: true}
	b.ContractPrice = ContractPrice(size, ppw)
	b.BaseCost = BaseCost(size)
	b.AdderCost = AdderCost(in.Adders)
	b.TotalCost = b.BaseCost + b.AdderCost
	b.CommissionAmount = math.Max(0, b.ContractPrice-b.TotalCost)
	b.Rate = PayTypeRate(in.PayType)
	b.MilestoneCommission = b.CommissionAmount * b.Rate
	return b
}

// MilestoneCommission returns the margin-based commission for a project.
// It never mutates p and is safe to call on every read.
func MilestoneCommission(p *models.Project, payType models.PayType) float64 {
	return Calculate(InputsFor(p, payType)).MilestoneCommission
}

// ProjectContractPrice returns the contract price, or 0 when unpriced.
func ProjectContractPrice(p *models.Project) float64 {
	if !IsPriced(p.SystemSizeKw, p.GrossPricePerWatt) {
		return 0
	}
	return ContractPrice(*p.SystemSizeKw, *p.GrossPricePerWatt)
}
