package nova

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// SnapshotState tracks how far a resource snapshot has progressed.
type SnapshotState int

const (
	Unfetched SnapshotState = iota
	Fetched
	Materialized
)

func (s SnapshotState) String() string {
	switch s {
	case Fetched:
		return "fetched"
	case Materialized:
		return "materialized"
	default:
		return "unfetched"
	}
}

// Snapshot is the last raw response for a resource and, once materialized,
// its decoded JSON value.
type Snapshot struct {
	Resource   Resource
	Method     string
	URL        string // request URL including query
	FinalURL   string // URL reached after following redirects
	StatusCode int
	Header     http.Header
	Body       []byte
	FetchedAt  time.Time

	state SnapshotState
	value any
}

func newSnapshot(r Resource, res *resty.Response) *Snapshot {
	s := &Snapshot{
		Resource:   r,
		Method:     res.Request.Method,
		URL:        res.Request.URL,
		StatusCode: res.StatusCode(),
		Header:     res.Header().Clone(),
		Body:       res.Body(),
		FetchedAt:  res.ReceivedAt(),
		state:      Fetched,
	}
	if rr := res.Request.RawRequest; rr != nil {
		s.URL = rr.URL.String()
	}
	if raw := res.RawResponse; raw != nil && raw.Request != nil {
		s.FinalURL = raw.Request.URL.String()
	}
	return s
}

func (s *Snapshot) State() SnapshotState {
	return s.state
}

// Value returns the decoded JSON; nil until materialized. Numbers decode as
// json.Number.
func (s *Snapshot) Value() any {
	return s.value
}

// OK reports a 2xx status.
func (s *Snapshot) OK() bool {
	return s.StatusCode >= 200 && s.StatusCode < 300
}

func (s *Snapshot) statusError() *StatusError {
	return &StatusError{
		Resource:   s.Resource,
		Method:     s.Method,
		URL:        s.URL,
		StatusCode: s.StatusCode,
		Body:       truncate(string(s.Body), 200),
	}
}

func (s *Snapshot) materialize() error {
	if s.state == Materialized {
		return nil
	}
	if !s.OK() {
		return s.statusError()
	}

	dec := json.NewDecoder(bytes.NewReader(s.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: decoding %s body: %v", ErrUnexpectedShape, s.Resource, err)
	}

	switch want := s.Resource.Shape(); want {
	case ShapeList:
		if _, ok := v.([]any); !ok {
			return fmt.Errorf("%w: %s is not a %s", ErrUnexpectedShape, s.Resource, want)
		}
	case ShapeObject:
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("%w: %s is not an %s", ErrUnexpectedShape, s.Resource, want)
		}
	}

	s.value = v
	s.state = Materialized
	return nil
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
