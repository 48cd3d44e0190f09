package contact_repo

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"crmapi/internal/domain/contact"
	"crmapi/internal/domain/filter"
	"crmapi/internal/infrastructure/storage/postgres"
)

var tracer = otel.Tracer("crmapi/contact_repo")

var _ contact.Executor = (*Executor)(nil)

// summaryColumns are the contact columns returned by a filter, in order.
// Every one of them is also a GROUP BY key.
var summaryColumns = []string{
	"c.id", "c.first_name", "c.last_name", "c.email", "c.phone", "c.company",
	"c.job_title", "c.lead_status", "c.owner_id", "c.created_at", "c.updated_at",
}

const fullNameColumn = "CONCAT(c.first_name, ' ', c.last_name) AS full_name"

// customAgg folds the custom values of one contact into a JSON object,
// reading each value from the column that matches its field type.
const customAgg = "COALESCE(json_object_agg(cf.field_name, CASE" +
	" WHEN cf.field_type = 'number' THEN to_jsonb(ccv.value_number)" +
	" WHEN cf.field_type = 'date' THEN to_jsonb(ccv.value_date)" +
	" WHEN cf.field_type = 'boolean' THEN to_jsonb(ccv.value_boolean)" +
	" WHEN cf.field_type = 'multi_select' THEN ccv.value_json" +
	" ELSE to_jsonb(ccv.value) END)" +
	" FILTER (WHERE cf.field_name IS NOT NULL), '{}'::json)"

const defaultOrder = "c.updated_at DESC"

// Executor runs compiled filters against contacts.
type Executor struct {
	txManager *postgres.TxManager
}

// NewExecutor creates a new filter executor.
func NewExecutor(txManager *postgres.TxManager) *Executor {
	return &Executor{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// fromClause joins contacts to their custom values and the registry.
// Data and count statements must share it.
func fromClause(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	return b.From("contacts " + filter.ContactAlias).
		LeftJoin("contact_custom_values ccv ON c.id = ccv.contact_id").
		LeftJoin("custom_fields cf ON ccv.custom_field_id = cf.id")
}

// whereClause restricts to active contacts matching the predicate.
func whereClause(b squirrel.SelectBuilder, predicate string) squirrel.SelectBuilder {
	return b.Where("c.is_active = true AND (" + predicate + ")")
}

// dataStatement builds the page query. Its arguments are the compiled
// parameters, plus the sort key when ordering by a custom field.
func dataStatement(q filter.CompiledQuery, page contact.Page) (string, []any, error) {
	args := bindParams(q.Parameters)
	order, key := orderBy(page, q.NextPlaceholder)
	if key != nil {
		args = append(args, key)
	}

	cols := make([]string, 0, len(summaryColumns)+2)
	cols = append(cols, summaryColumns...)
	cols = append(cols, fullNameColumn, customAgg+" AS custom_fields")

	b := fromClause(builder().Select(cols...))
	b = whereClause(b, q.Predicate).
		GroupBy(summaryColumns...).
		OrderBy(order).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset))

	sql, _, err := b.ToSql()
	if err != nil {
		return "", nil, err
	}
	return sql, args, nil
}

// countStatement builds the total-count query over the same joins and predicate.
func countStatement(q filter.CompiledQuery) (string, []any, error) {
	b := fromClause(builder().Select("COUNT(DISTINCT c.id)"))
	b = whereClause(b, q.Predicate)

	sql, _, err := b.ToSql()
	if err != nil {
		return "", nil, err
	}
	return sql, bindParams(q.Parameters), nil
}

// orderBy resolves the sort key. Fixed columns sort by the column itself;
// any other key sorts by that entry of the custom value object, bound as
// placeholder $next.
func orderBy(page contact.Page, next int) (string, any) {
	dir := "DESC"
	if page.SortOrder == filter.SortAsc {
		dir = "ASC"
	}
	if page.SortBy == nil || *page.SortBy == "" {
		return defaultOrder, nil
	}
	if def, ok := filter.Standard.Resolve(*page.SortBy); ok {
		return def.Column + " " + dir, nil
	}
	return "(" + customAgg + ")->>$" + strconv.Itoa(next) + " " + dir, *page.SortBy
}

// bindParams converts decoded JSON values into driver values.
func bindParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = bindValue(p)
	}
	return out
}

func bindValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case nil, string, bool, int, int32, int64, float32, float64:
		return v
	case []any, map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(raw)
	default:
		return v
	}
}

// Execute implements contact.Executor. The page and the count read the
// same snapshot.
func (e *Executor) Execute(ctx context.Context, q filter.CompiledQuery, page contact.Page) ([]contact.Summary, int64, error) {
	ctx, span := tracer.Start(ctx, "filter.execute")
	defer span.End()
	span.SetAttributes(
		attribute.Int("filter.params", len(q.Parameters)),
		attribute.Int("filter.limit", page.Limit),
		attribute.Int("filter.offset", page.Offset),
	)

	dataSQL, dataArgs, err := dataStatement(q, page)
	if err != nil {
		return nil, 0, err
	}
	countSQL, countArgs, err := countStatement(q)
	if err != nil {
		return nil, 0, err
	}

	var (
		rows  []contact.Summary
		total int64
	)
	err = e.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		querier := e.txManager.GetQuerier(ctx)
		if err := pgxscan.Select(ctx, querier, &rows, dataSQL, dataArgs...); err != nil {
			return err
		}
		return querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "filter failed")
		return nil, 0, postgres.MapQueryErr(err)
	}

	for i := range rows {
		if len(rows[i].CustomFields) == 0 {
			rows[i].CustomFields = nil
		}
	}
	span.SetAttributes(attribute.Int64("filter.total", total))
	return rows, total, nil
}
