// Package aggregation folds Projects into per-seller, per-team and
// company-wide figures. Milestone commission is recomputed from the stored
// inputs on every call; nothing here writes back to a Project.
package aggregation

import (
	"math"
	"sort"

	"deal-workers/internal/commission"
	"deal-workers/internal/models"
)

// Stats covers only projects with both size and price per watt; unpriced
// projects are left out of the averages rather than counted as zero.
type Stats struct {
	PricedCount      int     `json:"pricedCount"`
	AvgSystemSizeKw  float64 `json:"avgSystemSizeKw"`
	AvgContractValue float64 `json:"avgContractValue"`
	TotalRevenue     float64 `json:"totalRevenue"`
}

// ProjectLine is one project's contribution to a seller summary.
type ProjectLine struct {
	ProjectID           string               `json:"projectId"`
	DealNumber          int                  `json:"dealNumber"`
	Status              models.ProjectStatus `json:"status"`
	Priced              bool                 `json:"priced"`
	ContractPrice       float64              `json:"contractPrice"`
	MilestoneCommission float64              `json:"milestoneCommission"`
	PaymentAmount       float64              `json:"paymentAmount"`
}

type SellerSummary struct {
	SellerID                 string         `json:"sellerId"`
	Name                     string         `json:"name,omitempty"`
	PayType                  models.PayType `json:"payType"`
	Year                     int            `json:"year"`
	DealCount                int            `json:"dealCount"`
	TotalMilestoneCommission float64        `json:"totalMilestoneCommission"`
	UpfrontPay               float64        `json:"upfrontPay"`
	TotalEarnings            float64        `json:"totalEarnings"`
	Stats                    Stats          `json:"stats"`
	Projects                 []ProjectLine  `json:"projects"`
}

type TeamSummary struct {
	ManagerID         string             `json:"managerId"`
	TeamID            string             `json:"teamId,omitempty"`
	ManagerType       models.ManagerType `json:"managerType"`
	ManagerRatePerKw  float64            `json:"managerRatePerKw"`
	Year              int                `json:"year"`
	DealCount         int                `json:"dealCount"`
	TotalSystemSizeKw float64            `json:"totalSystemSizeKw"`
	ManagerCommission float64            `json:"managerCommission"`
	TeamRevenue       float64            `json:"teamRevenue"`
	Members           []SellerSummary    `json:"members"`
}

type CompanyStats struct {
	Year           int   `json:"year"`
	DealCount      int   `json:"dealCount"`
	CancelledCount int   `json:"cancelledCount"`
	SellerCount    int   `json:"sellerCount"`
	Stats          Stats `json:"stats"`
}

// ActiveProjects keeps projects installed in year that are not cancelled.
func ActiveProjects(projects []*models.Project, year int) []*models.Project {
	var active []*models.Project
	for _, p := range projects {
		if p.InstalledIn(year) && !p.IsCancelled() {
			active = append(active, p)
		}
	}
	return active
}

// ComputeStats averages over priced projects only.
func ComputeStats(projects []*models.Project) Stats {
	var s Stats
	var totalSize float64
	for _, p := range projects {
		if !commission.IsPriced(p.SystemSizeKw, p.GrossPricePerWatt) {
			continue
		}
		s.PricedCount++
		totalSize += *p.SystemSizeKw
		s.TotalRevenue += commission.ProjectContractPrice(p)
	}
	if s.PricedCount > 0 {
		s.AvgSystemSizeKw = totalSize / float64(s.PricedCount)
		s.AvgContractValue = s.TotalRevenue / float64(s.PricedCount)
	}
	return s
}

// Seller builds one seller's view for year from all of their projects.
func Seller(profile *models.SellerProfile, projects []*models.Project, year int) SellerSummary {
	active := ActiveProjects(projects, year)
	sum := SellerSummary{
		SellerID:  profile.ID,
		Name:      profile.Name,
		PayType:   profile.PayType,
		Year:      year,
		DealCount: len(active),
		Stats:     ComputeStats(active),
		Projects:  make([]ProjectLine, 0, len(active)),
	}
	for _, p := range active {
		b := commission.Calculate(commission.InputsFor(p, profile.PayType))
		sum.TotalMilestoneCommission += b.MilestoneCommission
		sum.Projects = append(sum.Projects, ProjectLine{
			ProjectID:           p.ID,
			DealNumber:          p.DealNumber,
			Status:              p.Status,
			Priced:              b.Priced,
			ContractPrice:       b.ContractPrice,
			MilestoneCommission: b.MilestoneCommission,
			PaymentAmount:       p.PaymentAmount,
		})
	}
	sum.UpfrontPay = float64(sum.DealCount) * commission.UpfrontFlatRate(profile.PayType)
	sum.TotalEarnings = sum.TotalMilestoneCommission + sum.UpfrontPay
	return sum
}

// Team builds the manager view. projects are the team's projects, the
// manager's own included; members supply pay types for the breakdown.
func Team(manager *models.SellerProfile, members []*models.SellerProfile, projects []*models.Project, year int) TeamSummary {
	rate := commission.ManagerRatePerKw(manager.ManagerType)
	active := ActiveProjects(projects, year)

	sum := TeamSummary{
		ManagerID:        manager.ID,
		TeamID:           manager.TeamID,
		ManagerType:      manager.ManagerType,
		ManagerRatePerKw: rate,
		Year:             year,
		DealCount:        len(active),
		Members:          make([]SellerSummary, 0, len(members)),
	}
	for _, p := range active {
		sum.TotalSystemSizeKw += systemSize(p)
		sum.TeamRevenue += commission.ProjectContractPrice(p)
	}
	sum.ManagerCommission = sum.TotalSystemSizeKw * rate

	byOwner := make(map[string][]*models.Project)
	for _, p := range projects {
		byOwner[p.OwnerID] = append(byOwner[p.OwnerID], p)
	}
	for _, m := range members {
		sum.Members = append(sum.Members, Seller(m, byOwner[m.ID], year))
	}
	sort.Slice(sum.Members, func(i, j int) bool { return sum.Members[i].SellerID < sum.Members[j].SellerID })
	return sum
}

// systemSize is 0 for a project whose size has not been entered.
func systemSize(p *models.Project) float64 {
	if p.SystemSizeKw == nil || math.IsNaN(*p.SystemSizeKw) || math.IsInf(*p.SystemSizeKw, 0) {
		return 0
	}
	return *p.SystemSizeKw
}

// Company builds the company-wide statistics for year.
func Company(projects []*models.Project, year int) CompanyStats {
	out := CompanyStats{Year: year}
	sellers := make(map[string]bool)
	for _, p := range projects {
		if !p.InstalledIn(year) {
			continue
		}
		if p.IsCancelled() {
			out.CancelledCount++
			continue
		}
		sellers[p.OwnerID] = true
	}
	active := ActiveProjects(projects, year)
	out.DealCount = len(active)
	out.SellerCount = len(sellers)
	out.Stats = ComputeStats(active)
	return out
}
