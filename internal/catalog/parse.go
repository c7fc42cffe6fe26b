package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// scalar accepts a JSON string or number and keeps its textual form. The API
// is inconsistent about quoting ids, codes, and decode keys.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = scalar(num.String())
	return nil
}

// epoch accepts an integer timestamp encoded as a number or numeric string.
type epoch int64

func (e *epoch) UnmarshalJSON(data []byte) error {
	var s scalar
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	text := strings.TrimSpace(string(s))
	if text == "" {
		*e = 0
		return nil
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		*e = epoch(v)
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("parse createtime %q: %w", text, err)
	}
	*e = epoch(int64(f))
	return nil
}

type envelope struct {
	Code scalar          `json:"code"`
	Data json.RawMessage `json:"data"`
}

type wireContact struct {
	Nickname  string `json:"nickname"`
	Username  string `json:"username"`
	Signature string `json:"signature"`
}

type wireSearchItem struct {
	Contact wireContact `json:"contact"`
}

type wireMedia struct {
	URL       string `json:"url"`
	URLToken  string `json:"url_token"`
	DecodeKey scalar `json:"decode_key"`
}

type wireObjectDesc struct {
	Description string      `json:"description"`
	Media       []wireMedia `json:"media"`
}

type wireObject struct {
	ID         scalar          `json:"id"`
	CreateTime epoch           `json:"createtime"`
	ObjectDesc *wireObjectDesc `json:"object_desc"`
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseSearch converts a search envelope's data array into user records. All
// records are kept, including ones without a username, so result indices stay
// aligned with what the user was shown.
func parseSearch(data json.RawMessage) ([]UserRecord, error) {
	if isNull(data) {
		return []UserRecord{}, nil
	}
	var items []wireSearchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	users := make([]UserRecord, 0, len(items))
	for _, item := range items {
		users = append(users, UserRecord{
			Username:  item.Contact.Username,
			Nickname:  item.Contact.Nickname,
			Signature: item.Contact.Signature,
		})
	}
	return users, nil
}

// timelineList picks the media array from a home page payload. The payload
// carries it under exactly one of two keys; object_list wins when both appear.
// Neither key present yields an empty list.
func timelineList(fields map[string]json.RawMessage) json.RawMessage {
	if raw, ok := fields["object_list"]; ok {
		return raw
	}
	if raw, ok := fields["object"]; ok {
		return raw
	}
	return nil
}

func parseTimeline(data json.RawMessage) ([]MediaRecord, error) {
	if isNull(data) {
		return []MediaRecord{}, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode home page: %w", err)
	}
	list := timelineList(fields)
	if isNull(list) {
		return []MediaRecord{}, nil
	}
	var objects []wireObject
	if err := json.Unmarshal(list, &objects); err != nil {
		return nil, fmt.Errorf("decode home page objects: %w", err)
	}
	records := make([]MediaRecord, 0, len(objects))
	for _, obj := range objects {
		records = append(records, obj.record())
	}
	return records, nil
}

func (o wireObject) record() MediaRecord {
	rec := MediaRecord{
		ID:         string(o.ID),
		CreateTime: int64(o.CreateTime),
	}
	if o.ObjectDesc == nil {
		return rec
	}
	rec.Description = strings.ReplaceAll(o.ObjectDesc.Description, "\n", " ")
	rec.MediaCount = len(o.ObjectDesc.Media)
	if rec.MediaCount > 0 {
		first := o.ObjectDesc.Media[0]
		rec.MediaURL = first.URL
		rec.URLToken = first.URLToken
		rec.DecodeKey = string(first.DecodeKey)
	}
	return rec
}
