// internal/commission/tables.go
package commission

import "deal-workers/internal/models"

// These tables are part of the external contract and must not drift.

// Adder is a named cost add-on.
type Adder string

const (
	AdderEABattery     Adder = "EA-Battery"
	AdderBackupBattery Adder = "BackupBattery"
	AdderMPU           Adder = "MPU"
	AdderHTI           Adder = "HTI"
	AdderReroof        Adder = "Reroof"
)

// adderOrder fixes summation order so results are reproducible.
var adderOrder = []Adder{AdderEABattery, AdderBackupBattery, AdderMPU, AdderHTI, AdderReroof}

var adderPrices = map[Adder]float64{
	AdderEABattery:     8000,
	AdderBackupBattery: 13000,
	AdderMPU:           3500,
	AdderHTI:           2500,
	AdderReroof:        15000,
}

const (
	wattsPerKw      = 1000
	baseCostPerKw   = 3500
	defaultRate     = 0.50
	defaultMgrRate  = 175
	tierOneMaxDeal  = 10
	tierTwoMaxDeal  = 20
	tierOneRatePerK = 200
	tierTwoRatePerK = 250
)

var payTypeRates = map[models.PayType]float64{
	models.PayTypeRookie: 0.24,
	models.PayTypeVet:    0.39,
	models.PayTypePro:    0.50,
}

var upfrontFlatRates = map[models.PayType]float64{
	models.PayTypeRookie: 300,
	models.PayTypeVet:    600,
	models.PayTypePro:    800,
}

var managerRates = map[models.ManagerType]float64{
	models.ManagerTypeAreaManager: 100,
	models.ManagerTypeRegional:    300,
	models.ManagerTypeDefault:     defaultMgrRate,
}

// AdderPrice returns the fixed dollar value of an adder, or 0 if unknown.
func AdderPrice(a Adder) float64 {
	return adderPrices[a]
}

// PayTypeRate returns the margin share for a pay type. Anything that is
// not Rookie or Vet earns the Pro rate.
func PayTypeRate(t models.PayType) float64 {
	if rate, ok := payTypeRates[t]; ok {
		return rate
	}
	return defaultRate
}

// UpfrontFlatRate is the flat amount accrued per converted deal.
func UpfrontFlatRate(t models.PayType) float64 {
	if rate, ok := upfrontFlatRates[t]; ok {
		return rate
	}
	return upfrontFlatRates[models.PayTypePro]
}

// ManagerRatePerKw is the override a manager earns per team kW.
func ManagerRatePerKw(t models.ManagerType) float64 {
	if rate, ok := managerRates[t]; ok {
		return rate
	}
	return defaultMgrRate
}

// SelectedAdders lists the adders flagged true, in table order.
func SelectedAdders(a models.Adders) []Adder {
	flags := map[Adder]bool{
		AdderEABattery:     a.EABattery,
		AdderBackupBattery: a.BackupBattery,
		AdderMPU:           a.MPU,
		AdderHTI:           a.HTI,
		AdderReroof:        a.Reroof,
	}
	var out []Adder
	for _, name := range adderOrder {
		if flags[name] {
			out = append(out, name)
		}
	}
	return out
}
