package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlan(t *testing.T) {
	cases := []struct {
		total, max int
		want       []int
	}{
		{10, 4, []int{4, 8, 10}},
		{12, 4, []int{4, 8, 12}},
		{3, 4, []int{3}},
		{4, 4, []int{4}},
		{1, 1, []int{1}},
		{5, 1, []int{1, 2, 3, 4, 5}},
		{0, 4, []int{}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Plan(c.total, c.max), "total %d max %d", c.total, c.max)
	}
}

func TestPlanCoverage(t *testing.T) {
	for total := 0; total <= 64; total++ {
		for max := 1; max <= 17; max++ {
			plan := Plan(total, max)
			next := 0
			for i := range plan {
				start, end := Span(plan, i)
				require.Equal(t, next, start)
				require.Greater(t, end, start)
				require.LessOrEqual(t, end-start, max)
				next = end
			}
			require.Equal(t, total, next)
			require.Equal(t, total, Len(plan))
		}
	}
}

func TestPlanInvalidMax(t *testing.T) {
	require.Panics(t, func() { Plan(10, 0) })
	require.Panics(t, func() { PlanRows(10, 3, 0) })
}

func TestPlanRows(t *testing.T) {
	// 7 rows of 3 columns with 10 elements per message: 3 rows per message
	require.Equal(t, []int{3, 6, 7}, PlanRows(7, 3, 10))
	// rows fit in one message
	require.Equal(t, []int{2}, PlanRows(2, 3, 10))
	// a row wider than the bound travels alone
	require.Equal(t, []int{1, 2, 3}, PlanRows(3, 20, 10))
	require.Equal(t, []int{}, PlanRows(0, 3, 10))
	require.Equal(t, []int{4}, PlanRows(4, 0, 10))
}

func TestPlanRowsIntegrity(t *testing.T) {
	for rows := 0; rows <= 20; rows++ {
		for cols := 1; cols <= 6; cols++ {
			for max := 1; max <= 25; max++ {
				plan := PlanRows(rows, cols, max)
				require.Equal(t, rows, Len(plan))
				for i := range plan {
					start, end := Span(plan, i)
					if cols <= max {
						require.LessOrEqual(t, (end-start)*cols, max)
					} else {
						require.Equal(t, 1, end-start)
					}
				}
			}
		}
	}
}
