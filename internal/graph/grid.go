package graph

import "slices"

// occupancy is the sparse row -> lanes grid used while laying out one
// sequence.
type occupancy struct {
	rows    map[int]map[int]bool
	maxLane int // 0 means unbounded
}

func newOccupancy(maxLanes int) *occupancy {
	return &occupancy{rows: make(map[int]map[int]bool), maxLane: maxLanes}
}

func (o *occupancy) free(y, lane int) bool {
	return !o.rows[y][lane]
}

func (o *occupancy) mark(y, lane int) {
	lanes, ok := o.rows[y]
	if !ok {
		lanes = make(map[int]bool)
		o.rows[y] = lanes
	}
	lanes[lane] = true
}

func (o *occupancy) markSpan(from, to, lane int) {
	for j := from; j <= to; j++ {
		o.mark(j, lane)
	}
}

// within clamps a starting lane to the cap.
func (o *occupancy) within(lane int) int {
	if lane < 0 {
		lane = 0
	}
	if o.maxLane > 0 && lane >= o.maxLane {
		lane = o.maxLane - 1
	}
	return lane
}

// firstFree returns the first lane at or above start that is free at y. The
// second result is true when the cap was hit and the last lane is returned
// regardless of occupancy.
func (o *occupancy) firstFree(y, start int) (int, bool) {
	for lane := o.within(start); ; lane++ {
		if o.maxLane > 0 && lane >= o.maxLane {
			return o.maxLane - 1, true
		}
		if o.free(y, lane) {
			return lane, false
		}
	}
}

// firstFreeSpan is firstFree over every row in [from, to].
func (o *occupancy) firstFreeSpan(from, to, start int) (int, bool) {
	for lane := o.within(start); ; lane++ {
		if o.maxLane > 0 && lane >= o.maxLane {
			return o.maxLane - 1, true
		}
		clear := true
		for j := from; j <= to; j++ {
			if !o.free(j, lane) {
				clear = false
				break
			}
		}
		if clear {
			return lane, false
		}
	}
}

// occupied returns the lanes in use at y in ascending order.
func (o *occupancy) occupied(y int) []int {
	lanes := o.rows[y]
	if len(lanes) == 0 {
		return nil
	}
	out := make([]int, 0, len(lanes))
	for lane := range lanes {
		out = append(out, lane)
	}
	slices.Sort(out)
	return out
}

// widest returns the highest lane in use at y, or -1.
func (o *occupancy) widest(y int) int {
	w := -1
	for lane := range o.rows[y] {
		if lane > w {
			w = lane
		}
	}
	return w
}
