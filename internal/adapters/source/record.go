package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/relvacode/iso8601"

	"github.com/ghalamif/SensorStat/internal/domain"
)

type payload struct {
	RowsData []rawRecord `json:"rows_data"`
}

type rawRecord struct {
	Status       json.RawMessage `json:"status"`
	Name         *string         `json:"name"`
	ProjectsName flexString      `json:"projects_name"`
	ProjectsID   flexString      `json:"projects_id"`
	PvrLastTime  flexString      `json:"pvr_last_time"`
	AdapterID    flexString      `json:"adapter_id"`
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// decodePayload turns one get_data row into sensor records.
func decodePayload(raw []byte) ([]domain.SensorRecord, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	out := make([]domain.SensorRecord, 0, len(p.RowsData))
	for i, r := range p.RowsData {
		rec, err := r.toDomain(i)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r rawRecord) toDomain(idx int) (domain.SensorRecord, error) {
	status, err := parseStatus(r.Status)
	if err != nil {
		return domain.SensorRecord{}, &domain.MalformedRecordError{Index: idx, Field: "status", Err: err}
	}
	if r.Name == nil {
		return domain.SensorRecord{}, &domain.MalformedRecordError{Index: idx, Field: "name"}
	}

	rec := domain.SensorRecord{
		Status:      status,
		Name:        domain.SensorName(*r.Name),
		GroupID:     string(r.ProjectsID),
		GroupName:   string(r.ProjectsName),
		LastSeenRaw: string(r.PvrLastTime),
		AdapterID:   string(r.AdapterID),
	}
	if rec.LastSeenRaw != "" {
		ts, err := iso8601.ParseString(rec.LastSeenRaw)
		if err != nil {
			return domain.SensorRecord{}, &domain.MalformedRecordError{Index: idx, Field: "pvr_last_time", Err: err}
		}
		rec.LastSeenAt = ts
	}
	return rec, nil
}

func parseStatus(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing")
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(raw)
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", text)
	}
	return int(f), nil
}
