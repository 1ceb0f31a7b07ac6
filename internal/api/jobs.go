package api

import (
	"net/http"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerJobs(g *echo.Group) {
	g.GET("/:id", s.getJob)
	g.PUT("/:id/status", s.updateJobStatus)
	g.POST("/:id/invoice", s.invoiceFromJob)
	s.registerLines(g, domain.ParentJob)
}

func (s *Server) registerInvoices(g *echo.Group) {
	g.GET("", s.listInvoices)
	g.GET("/:id", s.getInvoice)
	s.registerLines(g, domain.ParentInvoice)
}

type GenerateRequest struct {
	TargetDate string `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) generateJob(c echo.Context) error {
	req, err := bindRequest[GenerateRequest](c)
	if err != nil {
		return err
	}
	var target time.Time
	if req.TargetDate != "" {
		target, _ = time.Parse(dateLayout, req.TargetDate)
	}
	res, err := s.svc.Jobs.Generate(c.Request().Context(), c.Param("locationID"), target)
	if err != nil {
		return err
	}
	warnings := make([]WarningResponse, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, WarningResponse{TemplateID: w.TemplateID, CatalogItemID: w.CatalogItemID, Reason: w.Reason})
	}
	return c.JSON(http.StatusCreated, GenerateResponse{Job: jobResponse(res.Job, true), Warnings: warnings})
}

type CreateJobRequest struct {
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
}

func (s *Server) createJob(c echo.Context) error {
	req, err := bindRequest[CreateJobRequest](c)
	if err != nil {
		return err
	}
	date, _ := time.Parse(dateLayout, req.ScheduledDate)
	job, err := s.svc.Jobs.Create(c.Request().Context(), c.Param("locationID"), date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, jobResponse(job, false))
}

func (s *Server) listLocationJobs(c echo.Context) error {
	jobs, err := s.svc.Jobs.ListByLocation(c.Request().Context(), c.Param("locationID"))
	if err != nil {
		return err
	}
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobResponse(j, false))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getJob(c echo.Context) error {
	job, err := s.svc.Jobs.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, jobResponse(job, true))
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
}

func (s *Server) updateJobStatus(c echo.Context) error {
	req, err := bindRequest[StatusRequest](c)
	if err != nil {
		return err
	}
	job, err := s.svc.Jobs.UpdateStatus(c.Request().Context(), c.Param("id"), domain.JobStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, jobResponse(job, false))
}

func (s *Server) invoiceFromJob(c echo.Context) error {
	inv, err := s.svc.Invoices.CreateFromJob(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invoiceResponse(inv))
}

func (s *Server) listInvoices(c echo.Context) error {
	invoices, err := s.svc.Invoices.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoiceResponse(inv))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getInvoice(c echo.Context) error {
	inv, err := s.svc.Invoices.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoiceResponse(inv))
}
