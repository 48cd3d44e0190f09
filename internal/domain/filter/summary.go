package filter

import (
	"slices"
	"time"
)

// Summary describes what a filter touched and how long it took.
type Summary struct {
	TotalConditions  int      `json:"total_conditions"`
	FieldsUsed       []string `json:"fields_used"`
	CustomFieldsUsed []string `json:"custom_fields_used"`
	ExecutionTimeMs  int64    `json:"execution_time_ms"`
	// EstimatedPerformance is "slow" above 20 leaf conditions, else "good".
	EstimatedPerformance string `json:"estimated_performance"`
}

// Summarize counts leaf conditions and splits referenced fields into fixed
// columns and custom fields. Both lists are sorted and deduplicated.
func Summarize(req *Request, elapsed time.Duration) Summary {
	s := Summary{
		TotalConditions:  CountConditions(req.Root()),
		FieldsUsed:       []string{},
		CustomFieldsUsed: []string{},
		ExecutionTimeMs:  elapsed.Milliseconds(),
	}
	s.EstimatedPerformance = estimate(s.TotalConditions)

	walkConditions(req.Root(), func(c *Condition) {
		if IsStandardField(c.Field) {
			s.FieldsUsed = append(s.FieldsUsed, c.Field)
		} else {
			s.CustomFieldsUsed = append(s.CustomFieldsUsed, c.Field)
		}
	})

	slices.Sort(s.FieldsUsed)
	s.FieldsUsed = slices.Compact(s.FieldsUsed)
	slices.Sort(s.CustomFieldsUsed)
	s.CustomFieldsUsed = slices.Compact(s.CustomFieldsUsed)
	return s
}

// walkConditions visits every leaf under n, left to right.
func walkConditions(n Node, visit func(*Condition)) {
	switch n := n.(type) {
	case *Condition:
		visit(n)
	case *Group:
		for _, child := range n.Conditions {
			walkConditions(child, visit)
		}
	}
}

func estimate(leaves int) string {
	if leaves > slowThreshold {
		return "slow"
	}
	return "good"
}
