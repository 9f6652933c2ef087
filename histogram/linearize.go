package histogram

import (
	"github.com/tikkisean/nhist/axis"
	"github.com/tikkisean/nhist/store"
)

// linearize maps one coordinate tuple to a flat store offset, following the
// row-major accumulation described for the storage layout: axis 0 varies
// fastest. Any axis whose Update call grows it (shift != 0, or simply a
// changed Extent for axes that only grow on their high side) forces a
// storage rebuild before the offset is computed, since every stride from
// that axis outward has just changed.
//
// The returned bool is false when any coordinate falls outside its axis's
// domain (including any underflow/overflow/growth bin) -- callers drop the
// fill and count it, they never propagate this as an error, matching the
// silent out-of-range convention.
func (h *Histogram) linearize(coords []interface{}) (offset int, valid bool) {
	n := len(h.axes)
	oldExtents := h.extents
	newIdx := make([]int, n)
	newExtents := make([]int, n)
	shifts := make([]int, n)
	grew := false
	valid = true

	for k, a := range h.axes {
		j, shift := a.Update(coords[k])
		if a.Options().Has(axis.Underflow) {
			j++
		}
		ext := a.Extent()
		newIdx[k] = j
		newExtents[k] = ext
		shifts[k] = shift
		if j < 0 || j >= ext {
			valid = false
		}
		if ext != oldExtents[k] {
			grew = true
		}
	}

	if grew {
		h.rebuild(oldExtents, newExtents, shifts)
	}

	if !valid {
		return 0, false
	}

	offset = 0
	stride := 1
	for k := range h.axes {
		offset += newIdx[k] * stride
		stride *= newExtents[k]
	}
	return offset, true
}

// rebuild reallocates the backing store for the new extents and transplants
// every previously filled cell to its translated coordinate, per axis k:
// newCoord[k] = oldCoord[k] + shifts[k]. Cells that translate outside the
// new extent (which cannot happen for a correctly reporting axis, since
// growth only ever widens a range) are skipped defensively rather than
// panicking.
func (h *Histogram) rebuild(oldExtents, newExtents, shifts []int) {
	oldSize := product(oldExtents)
	newSize := product(newExtents)
	newStore := store.New(newSize)

	if oldSize > 0 && h.st.Depth() != store.Depth0 {
		oldCoord := make([]int, len(oldExtents))
		for old := 0; old < oldSize; old++ {
			decompose(old, oldExtents, oldCoord)
			newOffset := 0
			stride := 1
			ok := true
			for k, c := range oldCoord {
				nc := c + shifts[k]
				if nc < 0 || nc >= newExtents[k] {
					ok = false
					break
				}
				newOffset += nc * stride
				stride *= newExtents[k]
			}
			if !ok {
				continue
			}
			transplantCell(newStore, newOffset, h.st, old)
		}
	}

	h.st = newStore
	h.extents = append([]int(nil), newExtents...)
}

// transplantCell copies one bin's value from src to dst without re-running
// every increment that produced it: a weighted source cell is copied as its
// (sum_w, sum_w^2) pair, an unweighted one as its raw count.
func transplantCell(dst *store.Store, dstIdx int, src *store.Store, srcIdx int) {
	if src.Depth() == store.DepthWeighted {
		dst.SetWeighted(dstIdx, src.Value(srcIdx), src.Variance(srcIdx))
		return
	}
	v := src.Value(srcIdx)
	if v == 0 {
		return
	}
	dst.SetCount(dstIdx, uint64(v))
}

// decompose writes flat's row-major per-axis indices (axis 0 fastest) into
// out, given the extents that produced flat.
func decompose(flat int, extents []int, out []int) {
	for k, e := range extents {
		out[k] = flat % e
		flat /= e
	}
}

func product(extents []int) int {
	p := 1
	for _, e := range extents {
		p *= e
	}
	return p
}
