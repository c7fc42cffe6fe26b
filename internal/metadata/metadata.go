// Package metadata writes the per-run JSON sidecar describing the media
// object that was fetched.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"channelgrab/internal/catalog"
	"channelgrab/internal/fileutil"
)

// TimeLayout formats createtime_utc.
const TimeLayout = "2006-01-02 15:04:05 UTC"

// Pipeline is the sidecar document. Field order matches the written JSON.
type Pipeline struct {
	Username      string `json:"username"`
	LatestID      string `json:"latest_id"`
	Description   string `json:"description"`
	CreateTime    *int64 `json:"createtime"`
	CreateTimeUTC string `json:"createtime_utc"`
	DecodeKey     string `json:"decode_key"`
	URL           string `json:"url"`
	URLToken      string `json:"url_token"`
}

// FromRecord builds the sidecar for rec fetched from username's timeline. A
// zero CreateTime is written as null with an empty createtime_utc.
func FromRecord(username string, rec catalog.MediaRecord) Pipeline {
	meta := Pipeline{
		Username:      username,
		LatestID:      rec.ID,
		Description:   rec.Description,
		CreateTimeUTC: HumanTime(rec.CreateTime),
		DecodeKey:     rec.DecodeKey,
		URL:           rec.MediaURL,
		URLToken:      rec.URLToken,
	}
	if rec.CreateTime != 0 {
		ts := rec.CreateTime
		meta.CreateTime = &ts
	}
	return meta
}

// HumanTime renders epoch seconds in UTC, or "" for 0.
func HumanTime(epoch int64) string {
	if epoch == 0 {
		return ""
	}
	return time.Unix(epoch, 0).UTC().Format(TimeLayout)
}

// Encode renders meta as two-space indented JSON with non-ASCII text kept
// verbatim.
func Encode(meta Pipeline) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write stores meta at path, replacing any previous sidecar.
func Write(path string, meta Pipeline) error {
	data, err := Encode(meta)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

// Read loads a sidecar previously written by Write.
func Read(data []byte) (Pipeline, error) {
	var meta Pipeline
	if err := json.Unmarshal(data, &meta); err != nil {
		return Pipeline{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}
