package domain

type PlanType string

const (
	PlanMonthly    PlanType = "monthly"
	PlanQuarterly  PlanType = "quarterly"
	PlanSemiAnnual PlanType = "semi_annual"
	PlanAnnual     PlanType = "annual"
	PlanCustom     PlanType = "custom"
)

// ValidPlanTypes is the canonical set of accepted plan type strings.
var ValidPlanTypes = map[string]bool{
	"monthly": true, "quarterly": true, "semi_annual": true,
	"annual": true, "custom": true,
}

type JobStatus string

const (
	JobScheduled  JobStatus = "scheduled"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// ValidJobStatuses is the canonical set of accepted job status strings.
var ValidJobStatuses = map[string]bool{
	"scheduled": true, "in_progress": true, "completed": true, "cancelled": true,
}

type JobOrigin string

const (
	OriginPMPlan JobOrigin = "pm_plan"
	OriginManual JobOrigin = "manual"
)

type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
	InvoiceVoid  InvoiceStatus = "void"
)

type ParentKind string

const (
	ParentJob     ParentKind = "job"
	ParentInvoice ParentKind = "invoice"
)

// ParseParentKind accepts singular or plural forms ("job", "jobs").
func ParseParentKind(s string) (ParentKind, bool) {
	switch s {
	case "job", "jobs":
		return ParentJob, true
	case "invoice", "invoices":
		return ParentInvoice, true
	}
	return "", false
}

type LineSource string

const (
	SourceManual   LineSource = "manual"
	SourceCatalog  LineSource = "catalog"
	SourceTemplate LineSource = "template"
)
