package atom

import (
	"strconv"

	"github.com/adamwoolhether/gdata/element"
)

// Batch operation types.
const (
	BatchInsert = "insert"
	BatchUpdate = "update"
	BatchDelete = "delete"
	BatchQuery  = "query"
)

// BatchOperation is batch:operation.
type BatchOperation struct {
	element.OpenContent
	XMLName element.Name `gdata:"batch:operation"`
	Type    string       `gdata:"type,attr"`
}

// BatchStatus is batch:status, the per-entry result in a batch response.
type BatchStatus struct {
	element.OpenContent
	XMLName     element.Name `gdata:"batch:status"`
	Code        string       `gdata:"code,attr"`
	Reason      string       `gdata:"reason,attr"`
	ContentType string       `gdata:"content-type,attr"`
	Text        string       `gdata:",chardata"`
}

// StatusCode parses Code; a missing or malformed code is 0.
func (s *BatchStatus) StatusCode() int {
	if s == nil {
		return 0
	}

	n, err := strconv.Atoi(s.Code)
	if err != nil {
		return 0
	}

	return n
}

// OK reports whether the status code is 2xx.
func (s *BatchStatus) OK() bool {
	code := s.StatusCode()
	return code >= 200 && code < 300
}

// BatchInterrupted is batch:interrupted, set on a response feed when the
// server stopped processing a batch early.
type BatchInterrupted struct {
	element.OpenContent
	XMLName  element.Name `gdata:"batch:interrupted"`
	Reason   string       `gdata:"reason,attr"`
	Success  string       `gdata:"success,attr"`
	Failures string       `gdata:"failures,attr"`
	Parsed   string       `gdata:"parsed,attr"`
	Text     string       `gdata:",chardata"`
}

// Counts returns the parsed success, failures and parsed counters.
func (b *BatchInterrupted) Counts() (success, failures, parsed int) {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	return atoi(b.Success), atoi(b.Failures), atoi(b.Parsed)
}

// BatchMarkers are the batch children an entry carries inside a batch feed.
type BatchMarkers struct {
	BatchOperation *BatchOperation `gdata:"batch:operation"`
	BatchID        *Value          `gdata:"batch:id"`
	BatchStatus    *BatchStatus    `gdata:"batch:status"`
}

// SetBatch marks the entry with an operation type and a batch id.
func (b *BatchMarkers) SetBatch(op, id string) {
	b.BatchOperation = &BatchOperation{Type: op}
	b.BatchID = NewValue(id)
}

// BatchOp returns the operation type, or "".
func (b *BatchMarkers) BatchOp() string {
	if b.BatchOperation == nil {
		return ""
	}

	return b.BatchOperation.Type
}
