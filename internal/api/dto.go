package api

import (
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/scheduler"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type PlanResponse struct {
	ID                  string  `json:"id"`
	LocationID          string  `json:"location_id"`
	EligibleMonths      []int   `json:"eligible_months"`
	HasRecurringService bool    `json:"has_recurring_service"`
	PlanType            string  `json:"plan_type"`
	NextDueDate         *string `json:"next_due_date"`
	Notes               string  `json:"notes"`
}

func planResponse(p *domain.MaintenancePlan) PlanResponse {
	months := p.EligibleMonths
	if months == nil {
		months = []int{}
	}
	return PlanResponse{
		ID:                  p.ID,
		LocationID:          p.LocationID,
		EligibleMonths:      months,
		HasRecurringService: p.HasRecurringService,
		PlanType:            string(p.PlanType),
		NextDueDate:         formatDatePtr(p.NextDueDate),
		Notes:               p.Notes,
	}
}

type TemplateResponse struct {
	ID                  string          `json:"id"`
	LocationID          string          `json:"location_id"`
	CatalogItemID       string          `json:"catalog_item_id"`
	QuantityPerVisit    decimal.Decimal `json:"quantity_per_visit"`
	DescriptionOverride *string         `json:"description_override"`
	EquipmentLabel      *string         `json:"equipment_label"`
	SortOrder           int             `json:"sort_order"`
}

func templateResponse(t *domain.PartTemplate) TemplateResponse {
	return TemplateResponse{
		ID:                  t.ID,
		LocationID:          t.LocationID,
		CatalogItemID:       t.CatalogItemID,
		QuantityPerVisit:    t.QuantityPerVisit,
		DescriptionOverride: t.DescriptionOverride,
		EquipmentLabel:      t.EquipmentLabel,
		SortOrder:           t.SortOrder,
	}
}

type CatalogItemResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Cost      decimal.Decimal `json:"cost"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	IsActive  bool            `json:"is_active"`
}

func catalogItemResponse(c *domain.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{ID: c.ID, Name: c.Name, Cost: c.Cost, UnitPrice: c.UnitPrice, IsActive: c.IsActive}
}

type LineResponse struct {
	ID             string          `json:"id"`
	CatalogItemID  *string         `json:"catalog_item_id"`
	Description    string          `json:"description"`
	Notes          string          `json:"notes"`
	EquipmentLabel string          `json:"equipment_label"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	SortOrder      int             `json:"sort_order"`
	Source         string          `json:"source"`
}

func lineResponse(l domain.LineItem) LineResponse {
	return LineResponse{
		ID:             l.ID,
		CatalogItemID:  l.CatalogItemID,
		Description:    l.Description,
		Notes:          l.Notes,
		EquipmentLabel: l.EquipmentLabel,
		Quantity:       l.Quantity,
		UnitCost:       l.UnitCost,
		UnitPrice:      l.UnitPrice,
		LineTotal:      l.LineTotal(),
		SortOrder:      l.SortOrder,
		Source:         string(l.Source),
	}
}

func lineResponses(lines []domain.LineItem) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse(l))
	}
	return out
}

type TotalsResponse struct {
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Profit        decimal.Decimal `json:"profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

func totalsResponse(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		TotalPrice:    t.TotalPrice,
		TotalCost:     t.TotalCost,
		Profit:        t.Profit,
		MarginPercent: t.MarginPercent.Round(2),
	}
}

type LinesResponse struct {
	Lines  []LineResponse `json:"lines"`
	Totals TotalsResponse `json:"totals"`
}

type JobResponse struct {
	ID            string          `json:"id"`
	LocationID    string          `json:"location_id"`
	ScheduledDate string          `json:"scheduled_date"`
	Status        string          `json:"status"`
	Origin        string          `json:"origin"`
	Lines         []LineResponse  `json:"lines,omitempty"`
	Totals        *TotalsResponse `json:"totals,omitempty"`
}

func jobResponse(j *domain.ScheduledJob, withLines bool) JobResponse {
	resp := JobResponse{
		ID:            j.ID,
		LocationID:    j.LocationID,
		ScheduledDate: j.ScheduledDate.Format(dateLayout),
		Status:        string(j.Status),
		Origin:        string(j.Origin),
	}
	if withLines {
		resp.Lines = lineResponses(j.Lines)
		totals := totalsResponse(domain.ComputeTotals(j.Lines))
		resp.Totals = &totals
	}
	return resp
}

type WarningResponse struct {
	TemplateID    string `json:"template_id"`
	CatalogItemID string `json:"catalog_item_id"`
	Reason        string `json:"reason"`
}

type GenerateResponse struct {
	Job      JobResponse       `json:"job"`
	Warnings []WarningResponse `json:"warnings"`
}

type InvoiceResponse struct {
	ID         string         `json:"id"`
	LocationID string         `json:"location_id"`
	JobID      *string        `json:"job_id"`
	Status     string         `json:"status"`
	Lines      []LineResponse `json:"lines"`
	Totals     TotalsResponse `json:"totals"`
}

func invoiceResponse(inv *domain.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:         inv.ID,
		LocationID: inv.LocationID,
		JobID:      inv.JobID,
		Status:     string(inv.Status),
		Lines:      lineResponses(inv.Lines),
		Totals:     totalsResponse(domain.ComputeTotals(inv.Lines)),
	}
}

type UpcomingResponse struct {
	LocationID string `json:"location_id"`
	PlanType   string `json:"plan_type"`
	DueDate    string `json:"due_date"`
	DaysUntil  int    `json:"days_until"`
	Overdue    bool   `json:"overdue"`
}

func upcomingResponses(visits []scheduler.UpcomingVisit) []UpcomingResponse {
	out := make([]UpcomingResponse, 0, len(visits))
	for _, v := range visits {
		out = append(out, UpcomingResponse{
			LocationID: v.LocationID,
			PlanType:   string(v.PlanType),
			DueDate:    v.DueDate.Format(dateLayout),
			DaysUntil:  v.DaysUntil,
			Overdue:    v.Overdue,
		})
	}
	return out
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}
