package api

import (
	"net/http"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// registerLines mounts the line endpoints of one parent kind under g/:id/lines.
func (s *Server) registerLines(g *echo.Group, kind domain.ParentKind) {
	h := lineHandlers{s: s, kind: kind}
	g.GET("/:id/lines", h.list)
	g.POST("/:id/lines", h.create)
	g.PUT("/:id/lines/order", h.setOrder)
	g.PUT("/:id/lines/:lineID", h.update)
	g.DELETE("/:id/lines/:lineID", h.remove)
}

type lineHandlers struct {
	s    *Server
	kind domain.ParentKind
}

type LineRequest struct {
	CatalogItemID  *string         `json:"catalog_item_id"`
	Description    string          `json:"description" validate:"max=500"`
	Notes          string          `json:"notes" validate:"max=2000"`
	EquipmentLabel string          `json:"equipment_label" validate:"max=200"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Source         string          `json:"source" validate:"omitempty,oneof=manual catalog template"`
}

func (r LineRequest) input() domain.LineInput {
	source := domain.LineSource(r.Source)
	if source == "" {
		source = domain.SourceManual
		if r.CatalogItemID != nil && *r.CatalogItemID != "" {
			source = domain.SourceCatalog
		}
	}
	return domain.LineInput{
		CatalogItemID:  r.CatalogItemID,
		Description:    r.Description,
		Notes:          r.Notes,
		EquipmentLabel: r.EquipmentLabel,
		Quantity:       r.Quantity,
		UnitCost:       r.UnitCost,
		UnitPrice:      r.UnitPrice,
		Source:         source,
	}
}

type OrderRequest struct {
	LineIDs []string `json:"line_ids" validate:"dive,required"`
}

func (h lineHandlers) list(c echo.Context) error {
	lines, err := h.s.svc.Lines.List(c.Request().Context(), h.kind, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LinesResponse{
		Lines:  lineResponses(lines),
		Totals: totalsResponse(domain.ComputeTotals(lines)),
	})
}

func (h lineHandlers) create(c echo.Context) error {
	req, err := bindRequest[LineRequest](c)
	if err != nil {
		return err
	}
	line, err := h.s.svc.Lines.Create(c.Request().Context(), h.kind, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lineResponse(line))
}

func (h lineHandlers) update(c echo.Context) error {
	req, err := bindRequest[LineRequest](c)
	if err != nil {
		return err
	}
	line, err := h.s.svc.Lines.Update(c.Request().Context(), h.kind, c.Param("id"), c.Param("lineID"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lineResponse(line))
}

func (h lineHandlers) remove(c echo.Context) error {
	if err := h.s.svc.Lines.Delete(c.Request().Context(), h.kind, c.Param("id"), c.Param("lineID")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h lineHandlers) setOrder(c echo.Context) error {
	req, err := bindRequest[OrderRequest](c)
	if err != nil {
		return err
	}
	order := make([]domain.LineOrder, len(req.LineIDs))
	for i, id := range req.LineIDs {
		order[i] = domain.LineOrder{ID: id, SortOrder: i}
	}
	ctx := c.Request().Context()
	if err := h.s.svc.Lines.SetOrder(ctx, h.kind, c.Param("id"), order); err != nil {
		return err
	}
	return h.list(c)
}
