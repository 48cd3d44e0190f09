package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmapi/internal/core/apperror"
	"crmapi/internal/core/id"
	"crmapi/internal/domain/customfield"
	"crmapi/internal/domain/filter"
)

type staticFields struct {
	fields []*customfield.Field
	err    error
}

func (s staticFields) ActiveFields(context.Context, string) ([]*customfield.Field, error) {
	return s.fields, s.err
}

type recordingExec struct {
	query filter.CompiledQuery
	page  Page
	rows  []Summary
	total int64
	err   error
}

func (e *recordingExec) Execute(_ context.Context, q filter.CompiledQuery, page Page) ([]Summary, int64, error) {
	e.query, e.page = q, page
	return e.rows, e.total, e.err
}

func industryField() *customfield.Field {
	return customfield.NewField(customfield.ModuleContact, "industry", "Industry", customfield.TypeSelect)
}

func newFilterService(exec *recordingExec) *FilterService {
	svc := NewFilterService(staticFields{fields: []*customfield.Field{industryField()}}, exec)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(5 * time.Millisecond)
		return clock
	}
	return svc
}

func TestFilterService_Filter(t *testing.T) {
	exec := &recordingExec{rows: []Summary{{ID: id.New(), FirstName: "Ada"}}, total: 120}
	svc := newFilterService(exec)
	ctx := userCtx(id.New().String(), true)

	req := filter.NewRequest(filter.LogicAnd,
		filter.Cond("lead_status", filter.In, []any{"new", "contacted"}),
		filter.Cond("industry", filter.Equals, "Technology"),
	)
	req.Page = 2

	res, err := svc.Filter(ctx, req)
	require.NoError(t, err)

	assert.Contains(t, exec.query.Predicate, "c.lead_status IN ($1,$2)")
	assert.Equal(t, []any{"new", "contacted", "industry", "Technology"}, exec.query.Parameters)
	assert.Equal(t, Page{Limit: 50, Offset: 50, SortOrder: filter.SortDesc}, exec.page)

	assert.Len(t, res.Data, 1)
	assert.Equal(t, int64(120), res.TotalCount)
	assert.Equal(t, Pagination{Page: 2, Limit: 50, TotalPages: 3, HasNext: true, HasPrev: true}, res.Pagination)
	assert.Equal(t, 2, res.FilterSummary.TotalConditions)
	assert.Equal(t, []string{"lead_status"}, res.FilterSummary.FieldsUsed)
	assert.Equal(t, []string{"industry"}, res.FilterSummary.CustomFieldsUsed)
	assert.Equal(t, int64(5), res.FilterSummary.ExecutionTimeMs)
}

func TestFilterService_EmptyResult(t *testing.T) {
	exec := &recordingExec{}
	svc := newFilterService(exec)

	res, err := svc.Filter(userCtx(id.New().String(), true), filter.NewRequest(filter.LogicAnd))
	require.NoError(t, err)
	assert.Equal(t, "1=1", exec.query.Predicate)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, Pagination{Page: 1, Limit: 50}, res.Pagination)
}

// pagedExec serves a fixed row set the way LIMIT/OFFSET would.
type pagedExec struct {
	rows []Summary
}

func (e *pagedExec) Execute(_ context.Context, _ filter.CompiledQuery, page Page) ([]Summary, int64, error) {
	total := int64(len(e.rows))
	if page.Offset >= len(e.rows) {
		return nil, total, nil
	}
	end := min(page.Offset+page.Limit, len(e.rows))
	return e.rows[page.Offset:end], total, nil
}

func TestFilterService_Paging(t *testing.T) {
	exec := &pagedExec{rows: make([]Summary, 120)}
	for i := range exec.rows {
		exec.rows[i] = Summary{ID: id.New()}
	}
	svc := NewFilterService(staticFields{}, exec)
	ctx := userCtx(id.New().String(), true)

	tests := []struct {
		page     int
		wantRows int
		hasNext  bool
	}{
		{1, 50, true},
		{2, 50, true},
		{3, 20, false},
		{4, 0, false},
		{100, 0, false},
	}
	for _, tt := range tests {
		req := filter.NewRequest(filter.LogicAnd)
		req.Page = tt.page

		res, err := svc.Filter(ctx, req)
		require.NoError(t, err, "page %d", tt.page)

		assert.NotNil(t, res.Data, "page %d", tt.page)
		assert.Len(t, res.Data, tt.wantRows, "page %d", tt.page)
		assert.LessOrEqual(t, len(res.Data), req.Limit)
		assert.Equal(t, int64(120), res.TotalCount, "page %d", tt.page)
		assert.Equal(t, 3, res.Pagination.TotalPages)
		assert.Equal(t, tt.hasNext, res.Pagination.HasNext, "page %d", tt.page)
		assert.Equal(t, tt.page > 1, res.Pagination.HasPrev, "page %d", tt.page)
	}
}

func TestFilterService_OwnScope(t *testing.T) {
	exec := &recordingExec{}
	svc := newFilterService(exec)
	caller := id.New().String()

	_, err := svc.Filter(userCtx(caller, false, "contacts:read:own"), filter.NewRequest(filter.LogicAnd))
	require.NoError(t, err)
	assert.Equal(t, "(1=1 AND (c.owner_id = $1))", exec.query.Predicate)
	assert.Equal(t, []any{caller}, exec.query.Parameters)
}

func TestFilterService_Rejects(t *testing.T) {
	svc := newFilterService(&recordingExec{})

	_, err := svc.Filter(userCtx(id.New().String(), false), filter.NewRequest(filter.LogicAnd))
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))

	ctx := userCtx(id.New().String(), true)
	_, err = svc.Filter(ctx, filter.NewRequest(filter.LogicAnd, filter.Cond("nope", filter.Equals, "x")))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Filter(ctx, filter.NewRequest(filter.LogicAnd, filter.Cond("industry", filter.StartsWith, "x")))
	assert.Error(t, err)
}

func TestFilterService_StoreErrors(t *testing.T) {
	ctx := userCtx(id.New().String(), true)

	svc := newFilterService(&recordingExec{err: errors.New("connection reset")})
	_, err := svc.Filter(ctx, filter.NewRequest(filter.LogicAnd))
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))

	svc = newFilterService(&recordingExec{err: apperror.NewTimeout(errors.New("canceling statement"))})
	_, err = svc.Filter(ctx, filter.NewRequest(filter.LogicAnd))
	assert.True(t, apperror.HasCode(err, apperror.CodeTimeout))

	svc = NewFilterService(staticFields{err: errors.New("registry down")}, &recordingExec{})
	_, err = svc.Filter(ctx, filter.NewRequest(filter.LogicAnd))
	assert.True(t, apperror.HasCode(err, apperror.CodeDatabase))
}

func TestFilterService_ValidateOnly(t *testing.T) {
	svc := newFilterService(&recordingExec{})

	report, err := svc.ValidateOnly(context.Background(), filter.NewRequest(filter.LogicAnd,
		filter.Cond("nope", filter.Equals, "x"),
		filter.Cond("lead_status", filter.Contains, "new"),
	))
	require.NoError(t, err)
	assert.False(t, report.IsValid)
	assert.False(t, report.Analysis.IsValid)
	require.Len(t, report.Violations, 2)
	assert.Equal(t, "conditions[0]", report.Violations[0].Path)

	report, err = svc.ValidateOnly(context.Background(), filter.NewRequest(filter.LogicAnd,
		filter.Cond("industry", filter.Equals, "Technology"),
	))
	require.NoError(t, err)
	assert.True(t, report.IsValid)
	assert.Empty(t, report.Violations)
	assert.Equal(t, "good", report.Analysis.EstimatedPerformance)
}

func TestFilterService_Fields(t *testing.T) {
	svc := newFilterService(&recordingExec{})

	list, err := svc.Fields(context.Background())
	require.NoError(t, err)
	assert.Len(t, list.StandardFields, len(filter.StandardFieldNames()))
	assert.Equal(t, "c.email", list.StandardFields["email"].Column)
	require.Len(t, list.CustomFields, 1)
	assert.Equal(t, filter.TypeSelect, list.CustomFields["industry"].Type)
	assert.True(t, list.CustomFields["industry"].IsCustom())
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, Limit: 10, TotalPages: 1}, NewPagination(1, 10, 10))
	assert.Equal(t, Pagination{Page: 1, Limit: 10, TotalPages: 2, HasNext: true}, NewPagination(1, 10, 11))
	assert.Equal(t, Pagination{Page: 3, Limit: 10, TotalPages: 2, HasPrev: true}, NewPagination(3, 10, 11))
}
