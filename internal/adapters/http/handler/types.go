package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var errInvalidQuery = errors.New("handler: invalid query parameter")

// Date は YYYY-MM-DD 形式の日付です。
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// Optional は PATCH で「未指定」と「null による削除」を区別します。
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (d *Date) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func optionalTime(o Optional[Date]) *time.Time {
	if o.Value == nil {
		return nil
	}
	return o.Value.timePtr()
}

func queryString(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := queryString(r, key)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidQuery, key)
	}
	return &v, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := queryString(r, key)
	if raw == nil {
		return 0, nil
	}
	v, err := strconv.Atoi(*raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errInvalidQuery, key)
	}
	return v, nil
}

func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := queryString(r, key)
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidQuery, key)
	}
	return &t, nil
}

func typedString[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}
