package mapview

import "math"

// Project converts a geographic position to a point on a width×height surface
// using a flat equirectangular approximation. It is a coarse visual aid, so no
// projection correction is applied.
func Project(lon, lat, width, height float64) (x, y float64) {
	x = (lon + 180) / 360 * width
	y = (90 - lat) / 180 * height
	return x, y
}

// cell maps a projected coordinate onto a grid index in [0, size).
func cell(v float64, size int) int {
	if size <= 0 {
		return 0
	}
	i := int(math.Floor(v))
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}
