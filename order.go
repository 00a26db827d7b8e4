package textbook

// ComputeOrder returns the modules to compile, in order.
//
// Entries with Include set whose module still exists come first, in entry
// order. If none remain, the saved order is ignored and every module is
// returned in its natural order. Otherwise modules that no entry mentions
// (included or not) are appended in natural order. Modules without a body
// are dropped last. A module id repeated in entries is emitted once.
func ComputeOrder(entries []OrderEntry, modules []Module) []Module {
	byID := make(map[string]Module, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}

	ordered := make([]Module, 0, len(modules))
	emitted := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.Include || emitted[e.ModuleID] {
			continue
		}
		m, ok := byID[e.ModuleID]
		if !ok {
			continue
		}
		emitted[e.ModuleID] = true
		ordered = append(ordered, m)
	}

	if len(ordered) == 0 {
		ordered = append(ordered, modules...)
	} else {
		referenced := make(map[string]bool, len(entries))
		for _, e := range entries {
			referenced[e.ModuleID] = true
		}
		for _, m := range modules {
			if !referenced[m.ID] {
				ordered = append(ordered, m)
			}
		}
	}

	out := ordered[:0]
	for _, m := range ordered {
		if m.HasBody() {
			out = append(out, m)
		}
	}
	return out
}
