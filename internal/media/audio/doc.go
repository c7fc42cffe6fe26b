// Package audio extracts the audio track of a video into a standalone file
// with ffmpeg.
package audio
