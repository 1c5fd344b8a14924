// internal/models/seller.go
package models

// PayType is a seller's commission-rate tier.
type PayType string

const (
	PayTypeRookie PayType = "Rookie"
	PayTypeVet    PayType = "Vet"
	PayTypePro    PayType = "Pro"
)

// Valid reports whether t is one of the three pay types.
func (t PayType) Valid() bool {
	switch t {
	case PayTypeRookie, PayTypeVet, PayTypePro:
		return true
	}
	return false
}

// ManagerType selects the per-kW override a manager earns across the team.
type ManagerType string

const (
	ManagerTypeNone        ManagerType = ""
	ManagerTypeAreaManager ManagerType = "AreaManager"
	ManagerTypeRegional    ManagerType = "Regional"
	ManagerTypeDefault     ManagerType = "default"
)

// SellerProfile is a seller's identity and compensation settings.
// PayType is read-only to the seller; only managers and admins change it.
type SellerProfile struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PayType     PayType     `json:"payType"`
	ManagerType ManagerType `json:"managerType,omitempty"`
	TeamID      string      `json:"teamId,omitempty"`
}

// IsManager reports whether the seller also manages a team.
func (s *SellerProfile) IsManager() bool {
	return s.ManagerType != ManagerTypeNone
}
