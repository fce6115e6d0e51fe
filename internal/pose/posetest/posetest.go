// Package posetest builds synthetic landmark sets with known joint angles.
// It is used by tests and by the mock pose provider.
package posetest

import (
	"math"

	"github.com/ayusman/repcount/internal/pose"
)

// Segment lengths in normalized frame units.
const (
	UpperArm = 0.15
	Forearm  = 0.15
	Thigh    = 0.17
	Shin     = 0.17
)

// Standing returns a front-facing upright pose with arms hanging and legs straight.
func Standing() []pose.Landmark {
	lm := make([]pose.Landmark, pose.NumLandmarks)

	set(lm, pose.Nose, 0.50, 0.15)
	set(lm, pose.LeftEyeInner, 0.51, 0.13)
	set(lm, pose.LeftEye, 0.52, 0.13)
	set(lm, pose.LeftEyeOuter, 0.53, 0.13)
	set(lm, pose.RightEyeInner, 0.49, 0.13)
	set(lm, pose.RightEye, 0.48, 0.13)
	set(lm, pose.RightEyeOuter, 0.47, 0.13)
	set(lm, pose.LeftEar, 0.55, 0.14)
	set(lm, pose.RightEar, 0.45, 0.14)
	set(lm, pose.MouthLeft, 0.52, 0.18)
	set(lm, pose.MouthRight, 0.48, 0.18)

	set(lm, pose.LeftShoulder, 0.58, 0.28)
	set(lm, pose.RightShoulder, 0.42, 0.28)
	placeArm(lm, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, 180, 1)
	placeArm(lm, pose.RightShoulder, pose.RightElbow, pose.RightWrist, 180, -1)

	set(lm, pose.LeftHip, 0.55, 0.55)
	set(lm, pose.RightHip, 0.45, 0.55)
	placeLeg(lm, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, 180, 1)
	placeLeg(lm, pose.RightHip, pose.RightKnee, pose.RightAnkle, 180, -1)
	placeFeet(lm)

	return lm
}

// WithArms returns the standing pose with both elbows bent to the given angle.
func WithArms(elbow float64) []pose.Landmark {
	lm := Standing()
	placeArm(lm, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, elbow, 1)
	placeArm(lm, pose.RightShoulder, pose.RightElbow, pose.RightWrist, elbow, -1)
	return lm
}

// Squat returns a pose with the given hip-knee-ankle angle on each leg.
func Squat(leftKnee, rightKnee float64) []pose.Landmark {
	lm := Standing()
	placeLeg(lm, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, leftKnee, 1)
	placeLeg(lm, pose.RightHip, pose.RightKnee, pose.RightAnkle, rightKnee, -1)
	placeFeet(lm)
	return lm
}

// PushUp returns a side-view plank with the given elbow and shoulder-hip-ankle angles.
// The wrists stay planted; the shoulders drop as the elbows bend.
func PushUp(elbow, plank float64) []pose.Landmark {
	lm := Standing()

	wrist := pose.Landmark{X: 0.30, Y: 0.80}
	elbowPt := pose.Landmark{X: wrist.X, Y: wrist.Y - Forearm}
	rad := elbow * math.Pi / 180
	shoulder := pose.Landmark{
		X: elbowPt.X + UpperArm*math.Sin(rad),
		Y: elbowPt.Y + UpperArm*math.Cos(rad),
	}
	hip := pose.Landmark{X: shoulder.X + 0.25, Y: shoulder.Y}
	dev := (180 - plank) * math.Pi / 180
	ankle := pose.Landmark{X: hip.X + 0.25*math.Cos(dev), Y: hip.Y + 0.25*math.Sin(dev)}
	knee := pose.Midpoint(hip, ankle)

	for _, side := range [][6]int{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip, pose.RightKnee, pose.RightAnkle},
	} {
		set(lm, side[0], shoulder.X, shoulder.Y)
		set(lm, side[1], elbowPt.X, elbowPt.Y)
		set(lm, side[2], wrist.X, wrist.Y)
		set(lm, side[3], hip.X, hip.Y)
		set(lm, side[4], knee.X, knee.Y)
		set(lm, side[5], ankle.X, ankle.Y)
	}
	set(lm, pose.Nose, shoulder.X-0.06, shoulder.Y-0.02)
	placeFeet(lm)

	return lm
}

// PullUp returns a front-view hang from a bar at y=0.15 with the given elbow angle.
// The shoulders and head rise as the elbows bend.
func PullUp(elbow float64) []pose.Landmark {
	lm := Standing()

	const barY = 0.15
	half := elbow * math.Pi / 360
	shoulderY := barY + 2*UpperArm*math.Sin(half)
	midY := (barY + shoulderY) / 2
	out := UpperArm * math.Cos(half)

	for _, side := range []struct {
		shoulder, elbow, wrist int
		x, dir                 float64
	}{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, 0.58, 1},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist, 0.42, -1},
	} {
		set(lm, side.wrist, side.x, barY)
		set(lm, side.shoulder, side.x, shoulderY)
		set(lm, side.elbow, side.x+side.dir*out, midY)
	}

	set(lm, pose.Nose, 0.50, shoulderY-0.10)
	set(lm, pose.LeftHip, 0.55, shoulderY+0.27)
	set(lm, pose.RightHip, 0.45, shoulderY+0.27)
	placeLeg(lm, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, 180, 1)
	placeLeg(lm, pose.RightHip, pose.RightKnee, pose.RightAnkle, 180, -1)
	placeFeet(lm)

	return lm
}

// SitReach returns a seated side view facing +X with legs extended.
// reach is the wrist position relative to the toes; knee is the hip-knee-ankle angle.
func SitReach(reach, knee float64) []pose.Landmark {
	lm := Standing()

	hip := pose.Landmark{X: 0.40, Y: 0.70}
	ankle := pose.Landmark{X: 0.70, Y: 0.70}
	lift := 0.0
	if knee < 180 {
		lift = (ankle.X - hip.X) / 2 / math.Tan(knee*math.Pi/360)
	}
	kneePt := pose.Landmark{X: (hip.X + ankle.X) / 2, Y: hip.Y - lift}
	toeX := ankle.X + 0.03

	for _, side := range [][3]int{
		{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
		{pose.RightHip, pose.RightKnee, pose.RightAnkle},
	} {
		set(lm, side[0], hip.X, hip.Y)
		set(lm, side[1], kneePt.X, kneePt.Y)
		set(lm, side[2], ankle.X, ankle.Y)
	}
	set(lm, pose.LeftHeel, ankle.X-0.01, ankle.Y+0.02)
	set(lm, pose.RightHeel, ankle.X-0.01, ankle.Y+0.02)
	set(lm, pose.LeftFootIndex, toeX, ankle.Y-0.02)
	set(lm, pose.RightFootIndex, toeX, ankle.Y-0.02)

	set(lm, pose.LeftShoulder, 0.50, 0.45)
	set(lm, pose.RightShoulder, 0.50, 0.45)
	set(lm, pose.LeftWrist, toeX+reach, 0.62)
	set(lm, pose.RightWrist, toeX+reach, 0.62)
	set(lm, pose.LeftElbow, (0.50+toeX+reach)/2, 0.54)
	set(lm, pose.RightElbow, (0.50+toeX+reach)/2, 0.54)
	set(lm, pose.Nose, 0.55, 0.38)

	return lm
}

// Shift returns a copy of lm translated by (dx, dy).
func Shift(lm []pose.Landmark, dx, dy float64) []pose.Landmark {
	out := make([]pose.Landmark, len(lm))
	for i, l := range lm {
		out[i] = pose.Landmark{X: l.X + dx, Y: l.Y + dy, Z: l.Z, Visibility: l.Visibility}
	}
	return out
}

// Ramp returns n values linearly interpolated from start to end inclusive.
func Ramp(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{end}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	return out
}

func set(lm []pose.Landmark, idx int, x, y float64) {
	lm[idx] = pose.Landmark{X: x, Y: y, Visibility: 0.99}
}

// placeArm hangs the upper arm straight down from the shoulder and swings the
// forearm so the shoulder-elbow-wrist angle equals deg.
func placeArm(lm []pose.Landmark, shoulder, elbow, wrist int, deg, dir float64) {
	s := lm[shoulder]
	e := pose.Landmark{X: s.X, Y: s.Y + UpperArm}
	rad := deg * math.Pi / 180
	set(lm, elbow, e.X, e.Y)
	set(lm, wrist, e.X+dir*Forearm*math.Sin(rad), e.Y-Forearm*math.Cos(rad))
}

// placeLeg drops the thigh straight down from the hip and swings the shin so
// the hip-knee-ankle angle equals deg.
func placeLeg(lm []pose.Landmark, hip, knee, ankle int, deg, dir float64) {
	h := lm[hip]
	k := pose.Landmark{X: h.X, Y: h.Y + Thigh}
	rad := deg * math.Pi / 180
	set(lm, knee, k.X, k.Y)
	set(lm, ankle, k.X+dir*Shin*math.Sin(rad), k.Y-Shin*math.Cos(rad))
}

func placeFeet(lm []pose.Landmark) {
	la, ra := lm[pose.LeftAnkle], lm[pose.RightAnkle]
	set(lm, pose.LeftHeel, la.X, la.Y+0.02)
	set(lm, pose.RightHeel, ra.X, ra.Y+0.02)
	set(lm, pose.LeftFootIndex, la.X+0.01, la.Y+0.04)
	set(lm, pose.RightFootIndex, ra.X-0.01, ra.Y+0.04)
}
