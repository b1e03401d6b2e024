package dto

import (
	"github.com/shopspring/decimal"
)

// IssueLineRequest línea de una salida de material.
type IssueLineRequest struct {
	ItemID    string          `json:"item_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	MachineID *string         `json:"machine_id,omitempty"`
}

// CreateIssueRequest crea una salida (CONSUMPTION o SITE_TRANSFER).
type CreateIssueRequest struct {
	IssueType         string             `json:"issue_type"`
	SiteID            string             `json:"site_id"`
	DestinationSiteID *string            `json:"destination_site_id,omitempty"`
	RequisitionID     *string            `json:"requisition_id,omitempty"`
	Lines             []IssueLineRequest `json:"lines"`
}
