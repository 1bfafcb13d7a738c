package http

import "github.com/appliancevault/appliance-vault-backend/internal/appliance/service"

type Handler struct {
	applianceService *service.ApplianceService
	production       bool
}

func New(applianceService *service.ApplianceService, production bool) *Handler {
	return &Handler{
		applianceService: applianceService,
		production:       production,
	}
}

// updateReq distinguishes "companyName absent" from "companyName:
// null" by tracking key presence separately during binding.
type updateReq struct {
	Name         *string `json:"name,omitempty"`
	CompanyName  *string `json:"companyName,omitempty"`
	ModelNumber  *string `json:"modelNumber,omitempty"`
	PurchaseDate *string `json:"purchaseDate,omitempty"`
}
