// Package compress re-encodes a video so the result fits under a size budget.
//
// A Plan turns the budget, the probed duration, and the audio bitrate into a
// video bitrate. The Transcoder runs the encoder, measures the output, and when
// it overshoots lowers the safety factor and tries again, up to a bounded
// number of attempts:
//
//	Estimating -> Encoding -> Measuring -> Done
//	                             |
//	                             +-> Retrying -> Estimating
//	                             +-> Exhausted
//
// Sizes are measured in MiB; encoder bitrates are decimal kilobits.
package compress
