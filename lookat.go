package dronestorage

import (
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// eyeHeight is the player eye offset above their position.
	eyeHeight = 1.62

	// droneHitRadius is the radius of the sphere used to hit-test drones.
	droneHitRadius = 0.5

	// dropForward is how far in front of a piloted drone its storage is dropped.
	dropForward = 0.7
)

var (
	// StorageOffset is the container's local position on the drone.
	StorageOffset = mgl64.Vec3{0, 0.12, 0}

	// StorageRotation is the container's local rotation on the drone.
	StorageRotation = mgl64.QuatRotate(mgl64.DegToRad(-90), mgl64.Vec3{1, 0, 0})

	// dropRotation turns the storage rotation back upright for the drop bag.
	dropRotation = mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{1, 0, 0})
)

// lookDirection returns the unit vector a rotation faces.
func lookDirection(r cube.Rotation) mgl64.Vec3 {
	yaw, pitch := mgl64.DegToRad(r.Yaw()), mgl64.DegToRad(r.Pitch())
	return mgl64.Vec3{
		-math.Cos(pitch) * math.Sin(yaw),
		-math.Sin(pitch),
		math.Cos(pitch) * math.Cos(yaw),
	}
}

// yawQuat returns the rotation about the vertical axis for r.
func yawQuat(r cube.Rotation) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(-r.Yaw()), mgl64.Vec3{0, 1, 0})
}

// raySphere returns the distance along dir from origin to the first hit on
// the sphere, or -1 when the ray misses. dir must be normalized.
func raySphere(origin, dir, centre mgl64.Vec3, radius float64) float64 {
	oc := origin.Sub(centre)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return -1
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t >= 0 {
		return t
	}
	if t := -b + sq; t >= 0 {
		// Origin inside the sphere.
		return 0
	}
	return -1
}

// lookAt returns the closest eligible drone a is looking at within maxDist.
func lookAt(e Engine, a Actor, maxDist float64) Drone {
	eye := a.Position().Add(mgl64.Vec3{0, eyeHeight, 0})
	dir := lookDirection(a.Rotation())

	var (
		best     Drone
		bestDist = math.Inf(1)
	)
	for _, d := range e.DronesNear(eye, maxDist+droneHitRadius) {
		if !d.Eligible() {
			continue
		}
		t := raySphere(eye, dir, d.Position(), droneHitRadius)
		if t < 0 || t > maxDist || t >= bestDist {
			continue
		}
		best, bestDist = d, t
	}
	return best
}

// dropTransform returns where a drone's storage is dropped. Piloted drones
// drop in front of themselves, unpiloted ones where they are.
func dropTransform(d Drone, piloted bool) (mgl64.Vec3, mgl64.Quat) {
	yaw := yawQuat(d.Rotation())
	pos := d.Position()
	if piloted {
		pos = pos.Add(yaw.Rotate(mgl64.Vec3{0, 0, dropForward}))
	}
	return pos, yaw.Mul(StorageRotation).Mul(dropRotation)
}
