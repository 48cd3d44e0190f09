package contact

import (
	"context"
	"time"

	"crmapi/internal/core/apperror"
	appctx "crmapi/internal/core/context"
	"crmapi/internal/core/security"
	"crmapi/internal/domain/customfield"
	"crmapi/internal/domain/filter"
	"crmapi/pkg/logger"
)

// Pagination describes the page returned by a filter call.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination derives page counts from the total number of matches.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// FilterResult is the response of a filter call.
type FilterResult struct {
	Data          []Summary      `json:"data"`
	Pagination    Pagination     `json:"pagination"`
	TotalCount    int64          `json:"total_count"`
	FilterSummary filter.Summary `json:"filter_summary"`
}

// ValidationReport is the response of a dry-run validation.
type ValidationReport struct {
	IsValid    bool               `json:"is_valid"`
	Violations []filter.Violation `json:"violations"`
	Analysis   filter.Analysis    `json:"analysis"`
}

// FieldList is the filterable field catalog split by storage, keyed by name.
type FieldList struct {
	StandardFields map[string]filter.FieldDefinition `json:"standard_fields"`
	CustomFields   map[string]filter.FieldDefinition `json:"custom_fields"`
	Operators      []filter.Operator                 `json:"operators"`
}

// FilterService evaluates filter requests against contacts.
type FilterService struct {
	fields customfield.Source
	exec   Executor
	now    func() time.Time
}

// NewFilterService creates a new filter service.
func NewFilterService(fields customfield.Source, exec Executor) *FilterService {
	return &FilterService{fields: fields, exec: exec, now: time.Now}
}

// Catalog builds the field catalog from the current registry.
func (s *FilterService) Catalog(ctx context.Context) (*filter.Catalog, error) {
	fields, err := s.fields.ActiveFields(ctx, customfield.ModuleContact)
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	return filter.NewCatalog(filter.NewCustomFields(customfield.Specs(fields))), nil
}

// Filter validates, compiles and runs req. Callers limited to their own
// contacts get an owner_id condition ANDed onto the root.
func (s *FilterService) Filter(ctx context.Context, req *filter.Request) (*FilterResult, error) {
	scope := security.UserScope(ctx, PermRead)
	if scope == security.ScopeNone {
		return nil, apperror.NewForbidden("Permission denied: " + PermRead)
	}

	start := s.now()
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := filter.Validate(req, catalog); err != nil {
		return nil, err
	}

	root := req.Root()
	if scope == security.ScopeOwn {
		root = filter.And(root, filter.Cond("owner_id", filter.Equals, appctx.GetUserID(ctx)))
	}
	q, err := filter.CompileRoot(root, catalog)
	if err != nil {
		return nil, err
	}
	q.Check()

	rows, total, err := s.exec.Execute(ctx, q, PageOf(req))
	if err != nil {
		logger.Error(ctx, "contact filter failed",
			"error", err,
			"predicate_len", len(q.Predicate),
			"params", len(q.Parameters),
		)
		if _, ok := apperror.AsAppError(err); ok {
			return nil, err
		}
		return nil, apperror.NewDatabase(err)
	}
	if rows == nil {
		rows = []Summary{}
	}

	summary := filter.Summarize(req, s.now().Sub(start))
	logger.Debug(ctx, "contact filter",
		"conditions", summary.TotalConditions,
		"total", total,
		"elapsed_ms", summary.ExecutionTimeMs,
	)

	return &FilterResult{
		Data:          rows,
		Pagination:    NewPagination(req.Page, req.Limit, total),
		TotalCount:    total,
		FilterSummary: summary,
	}, nil
}

// ValidateOnly reports every violation in req without running it.
func (s *FilterService) ValidateOnly(ctx context.Context, req *filter.Request) (*ValidationReport, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	violations := filter.Collect(req, catalog)
	if violations == nil {
		violations = []filter.Violation{}
	}
	analysis := filter.Analyze(req)
	analysis.IsValid = len(violations) == 0
	return &ValidationReport{
		IsValid:    analysis.IsValid,
		Violations: violations,
		Analysis:   analysis,
	}, nil
}

// Fields lists the filterable fields.
func (s *FilterService) Fields(ctx context.Context) (*FieldList, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return &FieldList{
		StandardFields: catalog.Standard(),
		CustomFields:   catalog.Custom(),
		Operators:      filter.AllOperators,
	}, nil
}

// Presets returns the built-in filter presets.
func (s *FilterService) Presets() ([]filter.Preset, error) {
	presets, err := filter.Presets()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return presets, nil
}
