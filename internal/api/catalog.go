package api

import (
	"net/http"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func (s *Server) registerCatalog(g *echo.Group) {
	g.GET("/items", s.listCatalog)
	g.POST("/items", s.createCatalogItem)
	g.GET("/items/:itemID", s.getCatalogItem)
}

type CatalogQuery struct {
	Q               string `query:"q" validate:"max=200"`
	Limit           int    `query:"limit" validate:"min=0,max=200"`
	IncludeInactive bool   `query:"include_inactive"`
}

type CatalogItemRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Cost      decimal.Decimal `json:"cost"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (s *Server) listCatalog(c echo.Context) error {
	req, err := bindRequest[CatalogQuery](c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	var items []*domain.CatalogItem
	if req.Q != "" {
		items, err = s.svc.Catalog.Search(ctx, req.Q, req.Limit)
	} else {
		items, err = s.svc.Catalog.List(ctx, req.IncludeInactive)
	}
	if err != nil {
		return err
	}
	out := make([]CatalogItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, catalogItemResponse(item))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createCatalogItem(c echo.Context) error {
	req, err := bindRequest[CatalogItemRequest](c)
	if err != nil {
		return err
	}
	item, err := s.svc.Catalog.Create(c.Request().Context(), domain.NewCatalogItem{
		Name:      req.Name,
		Cost:      req.Cost,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, catalogItemResponse(item))
}

func (s *Server) getCatalogItem(c echo.Context) error {
	item, err := s.svc.Catalog.GetByID(c.Request().Context(), c.Param("itemID"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, catalogItemResponse(item))
}

type UpcomingQuery struct {
	Days int `query:"days" validate:"min=0,max=3660"`
}

func (s *Server) listUpcoming(c echo.Context) error {
	req, err := bindRequest[UpcomingQuery](c)
	if err != nil {
		return err
	}
	days := req.Days
	if days == 0 {
		days = s.upcomingDays
	}
	visits, err := s.svc.Upcoming.List(c.Request().Context(), s.now(), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, upcomingResponses(visits))
}
