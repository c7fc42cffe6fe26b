package compress

import (
	"errors"
	"fmt"
)

const (
	bytesPerMiB = 1024 * 1024
	minDuration = 0.001

	// DefaultTargetMB is the size budget in MiB.
	DefaultTargetMB = 50.0
	// DefaultAudioKbps is the AAC bitrate kept for the audio track.
	DefaultAudioKbps = 96
	// DefaultPreset is the x264 speed/quality preset.
	DefaultPreset = "medium"
	// DefaultRetries is the number of extra attempts after an oversize result.
	DefaultRetries = 2
	// DefaultSafety scales the ideal bitrate down to leave container headroom.
	DefaultSafety = 0.96
	// DefaultDecay multiplies the safety factor on every retry.
	DefaultDecay = 0.9
	// DefaultMinVideoBps floors the video bitrate.
	DefaultMinVideoBps = 200_000
	// DefaultMaxrateHeadroom sets -maxrate relative to -b:v.
	DefaultMaxrateHeadroom = 1.07
)

// ErrInfeasibleTarget is returned when the audio track alone would exceed the
// size budget.
var ErrInfeasibleTarget = errors.New("target size too small for chosen audio bitrate")

// Plan holds the inputs of one bitrate estimate. It is a value type: retries
// derive a new Plan with Decayed rather than mutating this one.
type Plan struct {
	TargetMB        float64
	DurationSeconds float64
	AudioKbps       int
	SafetyFactor    float64
	MinVideoBps     int64
}

// Bitrates are the encoder rate-control values in decimal kilobits per second.
type Bitrates struct {
	VideoBps int64
	VideoK   int64
	MaxrateK int64
	BufsizeK int64
	AudioK   int64
}

// TargetBytes returns the size budget in bytes.
func (p Plan) TargetBytes() float64 {
	return p.TargetMB * bytesPerMiB
}

// VideoBitrate returns the video bitrate in bits per second that spends the
// budget left after audio, scaled by the safety factor and floored at
// MinVideoBps.
func (p Plan) VideoBitrate() (int64, error) {
	duration := max(p.DurationSeconds, minDuration)
	totalBps := p.TargetBytes() * 8 / duration * p.SafetyFactor
	audioBps := float64(p.AudioKbps) * 1000
	videoBps := int64(totalBps - audioBps)
	if videoBps <= 0 {
		return 0, fmt.Errorf("%w: %.2f MB over %.1fs leaves no room beside %d kbps audio",
			ErrInfeasibleTarget, p.TargetMB, p.DurationSeconds, p.AudioKbps)
	}
	return max(videoBps, p.MinVideoBps), nil
}

// Bitrates derives the encoder settings. headroom sets -maxrate as a multiple
// of the target video rate; -bufsize is always twice the target.
func (p Plan) Bitrates(headroom float64) (Bitrates, error) {
	videoBps, err := p.VideoBitrate()
	if err != nil {
		return Bitrates{}, err
	}
	videoK := videoBps / 1000
	return Bitrates{
		VideoBps: videoBps,
		VideoK:   videoK,
		MaxrateK: int64(float64(videoK) * headroom),
		BufsizeK: videoK * 2,
		AudioK:   int64(p.AudioKbps),
	}, nil
}

// Decayed returns a copy of p with the safety factor multiplied by decay.
func (p Plan) Decayed(decay float64) Plan {
	next := p
	next.SafetyFactor = p.SafetyFactor * decay
	return next
}

// Fits reports whether sizeBytes is within the budget.
func (p Plan) Fits(sizeBytes int64) bool {
	return float64(sizeBytes)/bytesPerMiB <= p.TargetMB
}

// SizeMB converts bytes to MiB.
func SizeMB(sizeBytes int64) float64 {
	return float64(sizeBytes) / bytesPerMiB
}
