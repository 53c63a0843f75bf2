package playback

import "github.com/go-gl/mathgl/mgl64"

// MatchTime returns the playback time at which an animation whose marker sits at
// markerTime should start so that it reaches the marker timeToMarker seconds from now.
// Reverse playback (playRate < 0) starts from the end.
func MatchTime(markerTime, timeToMarker, playRate, playLength float64) float64 {
	if playRate < 0 {
		return playLength
	}
	return mgl64.Clamp(markerTime-timeToMarker*playRate, 0, playLength)
}
