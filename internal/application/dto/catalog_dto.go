package dto

// CreateSiteRequest alta de una obra física.
type CreateSiteRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// CreateItemRequest alta de un ítem (SKU).
type CreateItemRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// CreateMachineRequest alta de una máquina asignada a una obra.
type CreateMachineRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	SiteID string `json:"site_id"`
}
