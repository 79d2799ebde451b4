package repository

import (
	"fmt"
	"time"

	"github.com/lmarsden/film-catalog/internal/model"
)

// timeScanner accepts a DATETIME column whether the driver hands it
// over as time.Time (parseTime=true) or raw bytes, and renders it in
// the API's second-precision, zone-less format.
type timeScanner struct{ t time.Time }

func (ts *timeScanner) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		ts.t = x
		return nil
	case []byte:
		return ts.parse(string(x))
	case string:
		return ts.parse(x)
	case nil:
		ts.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", v)
	}
}

func (ts *timeScanner) parse(s string) error {
	t, err := time.Parse(model.TimestampLayout, s)
	if err != nil {
		return err
	}
	ts.t = t
	return nil
}

func (ts timeScanner) String() string {
	return ts.t.UTC().Format(model.TimestampLayout)
}
