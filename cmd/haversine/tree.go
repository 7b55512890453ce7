package main

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/getsentry/blockprof/internal/profiler"
)

// reportTree nests every slot under the slot that was active when it was
// first entered. Slots whose parent chain loops back on itself hang off the
// root.
func reportTree(r profiler.Report) treeprint.Tree {
	children := make(map[profiler.SlotID][]profiler.SlotReport)
	for _, s := range r.Slots {
		children[s.Parent] = append(children[s.Parent], s)
	}

	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("Total: %.4f ms (%d ticks)", r.Milliseconds(), r.TotalTicks))

	visited := make(map[profiler.SlotID]bool, len(r.Slots))
	var add func(t treeprint.Tree, id profiler.SlotID)
	add = func(t treeprint.Tree, id profiler.SlotID) {
		for _, s := range children[id] {
			if visited[s.ID] {
				continue
			}
			visited[s.ID] = true
			add(t.AddBranch(slotLabel(s)), s.ID)
		}
	}
	add(tree, profiler.RootSlot)
	for _, s := range r.Slots {
		if !visited[s.ID] {
			visited[s.ID] = true
			add(tree.AddBranch(slotLabel(s)), s.ID)
		}
	}
	return tree
}

func slotLabel(s profiler.SlotReport) string {
	if s.HasChildren() {
		return fmt.Sprintf("%s[%d]: %d (%.2f%%) excl. / %d (%.2f%%) incl.",
			s.Name, s.HitCount, s.ExclusiveTicks, s.ExclusivePercent, s.InclusiveTicks, s.InclusivePercent)
	}
	return fmt.Sprintf("%s[%d]: %d (%.2f%%)", s.Name, s.HitCount, s.ExclusiveTicks, s.ExclusivePercent)
}
