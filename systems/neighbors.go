package systems

import "github.com/pthm-cable/fluid/components"

// Run is a half-open range [Start, End) of the sorted pair buffer that
// shares one table slot.
type Run struct {
	Start, End uint32
}

// CandidateRuns fills runs with the pair ranges of the 27 cells around c and
// returns how many were written. Empty slots are skipped.
func (g *Grid) CandidateRuns(c Cell, runs *[27]Run) int {
	var seen [27]uint32
	nSeen := 0
	n := 0
	count := uint32(g.Count)

	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				slot := HashCell(Cell{c[0] + dx, c[1] + dy, c[2] + dz}, g.GridDim)

				if g.Dedupe {
					dup := false
					for k := 0; k < nSeen; k++ {
						if seen[k] == slot {
							dup = true
							break
						}
					}
					if dup {
						continue
					}
					seen[nSeen] = slot
					nSeen++
				}

				start := g.Offsets[slot]
				if start == components.NoOffset {
					continue
				}
				end := start
				for end < count && g.Pairs[end].Cell == slot {
					end++
				}
				runs[n] = Run{Start: start, End: end}
				n++
			}
		}
	}
	return n
}

// RunOf returns the pair range recorded for a single slot.
func (g *Grid) RunOf(slot uint32) (Run, bool) {
	start := g.Offsets[slot]
	if start == components.NoOffset {
		return Run{}, false
	}
	end := start
	for end < uint32(g.Count) && g.Pairs[end].Cell == slot {
		end++
	}
	return Run{Start: start, End: end}, true
}
