package domain

import (
	"fmt"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// SensorName is the raw identifier reported by a source. It is kept as bytes
// so that names round-trip exactly; Display is the only way to turn it into text.
type SensorName []byte

// Display decodes the name as UTF-8. Invalid sequences are replaced with
// U+FFFD instead of failing, so every sensor stays listable.
func (n SensorName) Display() string {
	out, err := unicode.UTF8.NewDecoder().Bytes(n)
	if err != nil {
		return string(n)
	}
	return string(out)
}

// Key returns the exact byte content as a comparable value.
func (n SensorName) Key() string { return string(n) }

// SensorRecord is one row of the point-in-time inventory returned by a source.
type SensorRecord struct {
	Status      int        `json:"status"`
	Name        SensorName `json:"name"`
	GroupID     string     `json:"projects_id"`
	GroupName   string     `json:"projects_name"`
	LastSeenRaw string     `json:"pvr_last_time"`
	LastSeenAt  time.Time  `json:"-"`
	AdapterID   string     `json:"adapter_id"`
}

// StatusClass is the exhaustive classification of a raw status code.
type StatusClass int

const (
	Operational StatusClass = iota
	NonOperational
	Degraded
)

// StatusClasses lists every class in display order.
var StatusClasses = []StatusClass{Operational, NonOperational, Degraded}

// ClassFromCode maps the source status code onto a class.
func ClassFromCode(code int) (StatusClass, error) {
	switch code {
	case 0:
		return NonOperational, nil
	case 1:
		return Operational, nil
	case 2:
		return Degraded, nil
	default:
		return 0, &UnknownStatusCodeError{Code: code}
	}
}

func (c StatusClass) String() string {
	switch c {
	case Operational:
		return "operational"
	case NonOperational:
		return "non_operational"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("status_class(%d)", int(c))
	}
}
