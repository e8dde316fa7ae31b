package ruby

import "math"

// Distribute spreads total minus the natural width of segs over their
// SpaceBefore and SpaceAfter fields according to a. Previous spacing is
// discarded. Segments wider than total keep zero spacing.
//
// Justified alignments weight every gap by the widths of the segments
// around it: each segment contributes width*unit/2 to each interior gap it
// touches, and JIS also to the two outer edges.
func Distribute(segs []*SizedSegment, total float64, a Alignment) {
	if len(segs) == 0 {
		return
	}
	natural := 0.0
	for _, s := range segs {
		s.SpaceBefore, s.SpaceAfter = 0, 0
		natural += s.Width
	}
	extra := math.Max(total-natural, 0)
	if extra == 0 {
		return
	}
	first, last := segs[0], segs[len(segs)-1]

	switch a {
	case Start:
		last.SpaceAfter = extra
		return
	case End:
		first.SpaceBefore = extra
		return
	case Justify, JIS:
		if len(segs) > 1 && justify(segs, extra, a == JIS) {
			return
		}
	}
	first.SpaceBefore = extra / 2
	last.SpaceAfter = extra / 2
}

// justify reports false when there is no width to weight the gaps by, in
// which case the caller centers instead.
func justify(segs []*SizedSegment, extra float64, edges bool) bool {
	n := len(segs)
	divider := 0.0
	for i, s := range segs {
		half := s.Width / 2
		if i < n-1 || edges {
			divider += half
		}
		if i > 0 || edges {
			divider += half
		}
	}
	if divider <= 0 {
		return false
	}
	unit := extra / divider
	for i, s := range segs {
		half := s.Width * unit / 2
		if i < n-1 || edges {
			s.SpaceAfter = half
		}
		if i > 0 || edges {
			s.SpaceBefore = half
		}
	}
	return true
}
