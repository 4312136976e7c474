package parser

import (
	"sort"

	"github.com/QTest-hq/codescope/pkg/model"
)

// LineOwners maps each line in [0, lines] to the index of the innermost
// declaration covering it, or -1. When spans overlap without nesting, the
// declaration that starts later wins.
func LineOwners(decls []model.Declaration, lines int) []int {
	maxLine := lines
	for _, d := range decls {
		if d.EndLine > maxLine {
			maxLine = d.EndLine
		}
	}
	if maxLine < 0 {
		maxLine = 0
	}

	order := make([]int, len(decls))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return decls[order[a]].StartLine < decls[order[b]].StartLine
	})

	owner := make([]int, maxLine+1)
	var active []int
	next := 0
	for line := range owner {
		for next < len(order) && decls[order[next]].StartLine <= line {
			if decls[order[next]].EndLine >= line {
				active = append(active, order[next])
			}
			next++
		}
		for len(active) > 0 && decls[active[len(active)-1]].EndLine < line {
			active = active[:len(active)-1]
		}
		owner[line] = -1
		if len(active) > 0 && line >= 1 {
			owner[line] = active[len(active)-1]
		}
	}
	return owner
}
