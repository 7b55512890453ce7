package haversine

import "math"

// EarthRadius is the radius, in kilometers, distances are computed with.
const EarthRadius = 6372.8

// Pair is two points given as longitude (x) and latitude (y) in degrees.
type Pair struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func square(a float64) float64 {
	return a * a
}

func radiansFromDegrees(degrees float64) float64 {
	return 0.01745329251994329577 * degrees
}

// ReferenceHaversine is the great circle distance between (x0, y0) and
// (x1, y1). The formula is kept in its reference shape so results match
// the answer files bit for bit.
func ReferenceHaversine(x0, y0, x1, y1, earthRadius float64) float64 {
	lat1 := y0
	lat2 := y1
	lon1 := x0
	lon2 := x1

	dLat := radiansFromDegrees(lat2 - lat1)
	dLon := radiansFromDegrees(lon2 - lon1)
	lat1 = radiansFromDegrees(lat1)
	lat2 = radiansFromDegrees(lat2)

	a := square(math.Sin(dLat/2.0)) + math.Cos(lat1)*math.Cos(lat2)*square(math.Sin(dLon/2))
	c := 2.0 * math.Asin(math.Sqrt(a))

	return earthRadius * c
}

// Distance is the distance of p on Earth.
func (p Pair) Distance() float64 {
	return ReferenceHaversine(p.X0, p.Y0, p.X1, p.Y1, EarthRadius)
}
