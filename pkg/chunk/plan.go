package chunk

import "fmt"

// Plan returns the exclusive upper bounds of the messages needed to carry
// total elements with at most max elements per message.
// An empty payload yields an empty plan and no message is sent for it.
func Plan(total, max int) []int {
	if max < 1 {
		panic(fmt.Sprintf("chunk: invalid max elements per message %d", max))
	}
	if total <= 0 {
		return []int{}
	}
	if total <= max {
		return []int{total}
	}

	full := total / max
	plan := make([]int, 0, full+1)
	for i := 1; i <= full; i++ {
		plan = append(plan, max*i)
	}
	if total%max != 0 {
		plan = append(plan, total)
	}
	return plan
}

// PlanRows plans a row-major matrix in whole rows, so no message ever holds a
// partial row. A row wider than maxElements still travels alone in one message.
func PlanRows(rows, cols, maxElements int) []int {
	if maxElements < 1 {
		panic(fmt.Sprintf("chunk: invalid max elements per message %d", maxElements))
	}
	if cols <= 0 {
		// rows carry no elements, one message is enough
		if rows <= 0 {
			return []int{}
		}
		return []int{rows}
	}
	maxRows := maxElements / cols
	if maxRows < 1 {
		maxRows = 1
	}
	return Plan(rows, maxRows)
}

// Span returns the [start, end) interval of the i-th planned message.
func Span(plan []int, i int) (start, end int) {
	if i > 0 {
		start = plan[i-1]
	}
	return start, plan[i]
}

// Len returns the number of units the plan covers.
func Len(plan []int) int {
	if len(plan) == 0 {
		return 0
	}
	return plan[len(plan)-1]
}
