package api

import (
	"net/http"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func (s *Server) registerPlans(g *echo.Group) {
	g.GET("/plan", s.getPlan)
	g.PUT("/plan", s.putPlan)
	g.GET("/plan/next-due", s.getNextDue)
	g.GET("/plan/templates", s.listTemplates)
	g.POST("/plan/templates", s.addTemplate)
	g.DELETE("/plan/templates/:templateID", s.removeTemplate)
	g.GET("/jobs", s.listLocationJobs)
	g.POST("/jobs", s.createJob)
	g.POST("/jobs/generate", s.generateJob)
}

type PlanRequest struct {
	EligibleMonths      []int  `json:"eligible_months" validate:"dive,min=0,max=11"`
	HasRecurringService *bool  `json:"has_recurring_service" validate:"required"`
	PlanType            string `json:"plan_type" validate:"omitempty,oneof=monthly quarterly semi_annual annual custom"`
	Notes               string `json:"notes" validate:"max=2000"`
}

func (s *Server) getPlan(c echo.Context) error {
	plan, err := s.svc.Plans.Get(c.Request().Context(), c.Param("locationID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, planResponse(plan))
}

func (s *Server) putPlan(c echo.Context) error {
	req, err := bindRequest[PlanRequest](c)
	if err != nil {
		return err
	}
	plan, err := s.svc.Plans.Configure(c.Request().Context(), service.PlanConfig{
		LocationID:          c.Param("locationID"),
		EligibleMonths:      req.EligibleMonths,
		HasRecurringService: *req.HasRecurringService,
		PlanType:            domain.PlanType(req.PlanType),
		Notes:               req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, planResponse(plan))
}

type NextDueRequest struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
}

type NextDueResponse struct {
	LocationID string `json:"location_id"`
	From       string `json:"from"`
	NextDue    string `json:"next_due"`
}

func (s *Server) getNextDue(c echo.Context) error {
	req, err := bindRequest[NextDueRequest](c)
	if err != nil {
		return err
	}
	from := s.now()
	if req.From != "" {
		from, _ = time.Parse(dateLayout, req.From)
	}
	next, err := s.svc.Plans.NextDue(c.Request().Context(), c.Param("locationID"), from)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NextDueResponse{
		LocationID: c.Param("locationID"),
		From:       from.Format(dateLayout),
		NextDue:    next.Format(dateLayout),
	})
}

type TemplateRequest struct {
	CatalogItemID       string          `json:"catalog_item_id" validate:"required"`
	QuantityPerVisit    decimal.Decimal `json:"quantity_per_visit"`
	DescriptionOverride *string         `json:"description_override" validate:"omitempty,max=500"`
	EquipmentLabel      *string         `json:"equipment_label" validate:"omitempty,max=200"`
}

func (s *Server) listTemplates(c echo.Context) error {
	templates, err := s.svc.Plans.ListTemplates(c.Request().Context(), c.Param("locationID"))
	if err != nil {
		return err
	}
	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateResponse(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) addTemplate(c echo.Context) error {
	req, err := bindRequest[TemplateRequest](c)
	if err != nil {
		return err
	}
	t := &domain.PartTemplate{
		LocationID:          c.Param("locationID"),
		CatalogItemID:       req.CatalogItemID,
		QuantityPerVisit:    req.QuantityPerVisit,
		DescriptionOverride: req.DescriptionOverride,
		EquipmentLabel:      req.EquipmentLabel,
	}
	if err := s.svc.Plans.AddTemplate(c.Request().Context(), t); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, templateResponse(t))
}

func (s *Server) removeTemplate(c echo.Context) error {
	if err := s.svc.Plans.RemoveTemplate(c.Request().Context(), c.Param("locationID"), c.Param("templateID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
