// Package pose provides body landmark types and the geometry shared by the exercise detectors.
package pose

import "math"

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is one estimated body keypoint.
// X and Y are normalized to the frame ([0,1], Y grows downward), Z is the
// provider's relative depth and Visibility its confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is one timestamped set of landmarks.
type Frame struct {
	Timestamp float64    `json:"timestamp"` // seconds, non-decreasing within a session
	Landmarks []Landmark `json:"landmarks"`
}

// Valid reports whether landmarks holds a full body topology with finite coordinates.
func Valid(landmarks []Landmark) bool {
	if len(landmarks) < NumLandmarks {
		return false
	}
	for i := 0; i < NumLandmarks; i++ {
		l := landmarks[i]
		if !finite(l.X) || !finite(l.Y) || !finite(l.Z) || !finite(l.Visibility) {
			return false
		}
	}
	return true
}

// Visible reports whether every given landmark meets the visibility threshold.
func Visible(threshold float64, points ...Landmark) bool {
	for _, p := range points {
		if p.Visibility < threshold {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
