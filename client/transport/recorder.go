package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Mode selects whether a Recorder captures or replays.
type Mode int

const (
	// Replay answers requests from the loaded journal.
	Replay Mode = iota
	// Record forwards requests and journals each exchange.
	Record
)

func (m Mode) String() string {
	switch m {
	case Replay:
		return "replay"
	case Record:
		return "record"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

var (
	ErrNoRecording  = errors.New("no recorded response matches request")
	ErrUnknownMode  = errors.New("unknown recorder mode")
	ErrNoTransport  = errors.New("record mode requires a transport")
	errNilRecording = errors.New("nil recorder")
)

const scrubbed = "SCRUBBED"

// Interaction is one journaled request/response pair.
type Interaction struct {
	Request  RecordedRequest  `yaml:"request"`
	Response RecordedResponse `yaml:"response"`
}

type RecordedRequest struct {
	Method string              `yaml:"method"`
	URL    string              `yaml:"url"`
	Header map[string][]string `yaml:"header,omitempty"`
	Body   string              `yaml:"body,omitempty"`
}

type RecordedResponse struct {
	StatusCode int                 `yaml:"status_code"`
	Status     string              `yaml:"status"`
	Header     map[string][]string `yaml:"header,omitempty"`
	Body       string              `yaml:"body,omitempty"`
}

// Recorder is a record/replay http.RoundTripper. Requests match a journaled
// interaction on method, host, path, the gsessionid query parameter and the
// If-Match header; each interaction answers at most once, in journal order.
// Credentials are scrubbed before anything is journaled.
type Recorder struct {
	mode Mode
	next http.RoundTripper

	mu           sync.Mutex
	interactions []Interaction
	used         []bool
}

// NewRecorder returns a recorder in mode. next is the real transport used in
// Record mode and may be nil in Replay mode.
func NewRecorder(mode Mode, next http.RoundTripper) (*Recorder, error) {
	switch mode {
	case Replay:
	case Record:
		if next == nil {
			return nil, ErrNoTransport
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	return &Recorder{mode: mode, next: next}, nil
}

// Mode reports the recorder's mode.
func (r *Recorder) Mode() Mode { return r.mode }

// Interactions returns a copy of the journal.
func (r *Recorder) Interactions() []Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Interaction, len(r.interactions))
	copy(out, r.interactions)

	return out
}

func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if r == nil {
		return nil, errNilRecording
	}

	switch r.mode {
	case Record:
		return r.record(req)
	case Replay:
		return r.replay(req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, r.mode)
	}
}

func (r *Recorder) record(req *http.Request) (*http.Response, error) {
	// The caller's request stays as it was; the drained body travels on a
	// clone.
	out := req.Clone(req.Context())

	reqBody, err := drain(&out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if reqBody != nil {
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(reqBody)), nil
		}
	}

	resp, err := r.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	respBody, err := drain(&resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	in := Interaction{
		Request: RecordedRequest{
			Method: req.Method,
			URL:    req.URL.String(),
			Header: scrubHeader(req.Header),
			Body:   scrubBody(string(reqBody)),
		},
		Response: RecordedResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     scrubHeader(resp.Header),
			Body:       scrubBody(string(respBody)),
		},
	}

	r.mu.Lock()
	r.interactions = append(r.interactions, in)
	r.used = append(r.used, false)
	r.mu.Unlock()

	return resp, nil
}

func (r *Recorder) replay(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, in := range r.interactions {
		if r.used[i] || !matches(in.Request, req) {
			continue
		}
		r.used[i] = true

		rec := in.Response
		body := []byte(rec.Body)
		header := http.Header(rec.Header).Clone()
		if header == nil {
			header = make(http.Header)
		}

		return &http.Response{
			Status:        rec.Status,
			StatusCode:    rec.StatusCode,
			Proto:         "HTTP/1.1",
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        header,
			Body:          io.NopCloser(bytes.NewReader(body)),
			ContentLength: int64(len(body)),
			Request:       req,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s %s", ErrNoRecording, req.Method, req.URL)
}

func matches(rec RecordedRequest, req *http.Request) bool {
	if !strings.EqualFold(rec.Method, req.Method) {
		return false
	}

	u, err := req.URL.Parse(rec.URL)
	if err != nil {
		return false
	}

	return strings.EqualFold(u.Host, req.URL.Host) &&
		u.Path == req.URL.Path &&
		u.Query().Get("gsessionid") == req.URL.Query().Get("gsessionid") &&
		http.Header(rec.Header).Get("If-Match") == req.Header.Get("If-Match")
}

// Save writes the journal to path as YAML.
func (r *Recorder) Save(path string) error {
	r.mu.Lock()
	data, err := yaml.Marshal(r.interactions)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}

	return nil
}

// Load replaces the journal with the YAML at path and marks every
// interaction unused.
func (r *Recorder) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	var interactions []Interaction
	if err := yaml.Unmarshal(data, &interactions); err != nil {
		return fmt.Errorf("decoding journal: %w", err)
	}

	r.mu.Lock()
	r.interactions = interactions
	r.used = make([]bool, len(interactions))
	r.mu.Unlock()

	return nil
}

// /////////////////////////////////////////////////////////////////

// drain reads *body fully and replaces it with a replayable reader.
func drain(body *io.ReadCloser) ([]byte, error) {
	if *body == nil || *body == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(*body)
	_ = (*body).Close()
	if err != nil {
		return nil, err
	}
	*body = io.NopCloser(bytes.NewReader(data))

	return data, nil
}

var secretHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}

func scrubHeader(h http.Header) map[string][]string {
	if len(h) == 0 {
		return nil
	}

	out := h.Clone()
	for _, k := range secretHeaders {
		if out.Get(k) != "" {
			out.Set(k, scrubbed)
		}
	}

	return out
}

// Matches key=value secrets in form bodies and line-delimited auth replies.
var secretValues = regexp.MustCompile(`(?m)(^|[&\n])(Passwd|Auth|SID|LSID|Token)=[^&\r\n]*`)

func scrubBody(body string) string {
	return secretValues.ReplaceAllString(body, "${1}${2}="+scrubbed)
}
