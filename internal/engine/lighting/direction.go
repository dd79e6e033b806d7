package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DirectionFromAngles converts a sun position to the direction its light travels.
// Longitude is rotation around Y in degrees, latitude is elevation above the
// horizon in degrees. The result points from the sun toward the scene.
func DirectionFromAngles(longitude, latitude float32) mgl32.Vec3 {
	lonRad := float64(longitude) * math.Pi / 180.0
	latRad := float64(latitude) * math.Pi / 180.0

	// Spherical to Cartesian, toward the sun.
	x := float32(math.Cos(latRad) * math.Sin(lonRad))
	y := float32(math.Sin(latRad))
	z := float32(math.Cos(latRad) * math.Cos(lonRad))

	return mgl32.Vec3{-x, -y, -z}
}

// Angles is the inverse of DirectionFromAngles, for editing a light direction.
func Angles(direction mgl32.Vec3) (longitude, latitude float32) {
	d := direction.Normalize().Mul(-1)
	lat := math.Asin(float64(mgl32.Clamp(d[1], -1, 1)))
	lon := math.Atan2(float64(d[0]), float64(d[2]))
	return float32(lon * 180 / math.Pi), float32(lat * 180 / math.Pi)
}
