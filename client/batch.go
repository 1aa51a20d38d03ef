package client

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/internal/validate"
)

var (
	ErrBatchComposition = errors.New("invalid batch")
	ErrDuplicateBatchID = errors.New("duplicate batch id")
	ErrPartiallyFailed  = errors.New("batch partially failed")
	ErrBatchInterrupted = errors.New("batch interrupted")
)

// BatchCompositionError reports the first entry of a batch feed that breaks
// the composition rules.
type BatchCompositionError struct {
	Index   int
	BatchID string
	Err     error
}

func (e *BatchCompositionError) Error() string {
	return fmt.Sprintf("%v: entry %d (batch id %q): %v", ErrBatchComposition, e.Index, e.BatchID, e.Err)
}

func (e *BatchCompositionError) Unwrap() []error {
	return []error{ErrBatchComposition, e.Err}
}

// BatchFailure is the status of one failed operation.
type BatchFailure struct {
	Code   int
	Reason string
}

// PartiallyFailedError lists, by batch id, the operations whose status was
// outside 2xx or that got no response entry.
type PartiallyFailedError struct {
	Failures  map[string]BatchFailure
	Succeeded int
}

func (e *PartiallyFailedError) Error() string {
	ids := slices.Sorted(maps.Keys(e.Failures))

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		f := e.Failures[id]
		fmt.Fprintf(&b, "%s=%d %s", id, f.Code, f.Reason)
	}

	return fmt.Sprintf("%v: %d failed, %d succeeded: %s", ErrPartiallyFailed, len(ids), e.Succeeded, b.String())
}

func (e *PartiallyFailedError) Unwrap() error {
	return ErrPartiallyFailed
}

// BatchInterruptedError carries the counters of a batch:interrupted
// marker.
type BatchInterruptedError struct {
	Reason   string
	Success  int
	Failures int
	Parsed   int
}

func (e *BatchInterruptedError) Error() string {
	return fmt.Sprintf("%v: %s (success %d, failures %d, parsed %d)", ErrBatchInterrupted, e.Reason, e.Success, e.Failures, e.Parsed)
}

func (e *BatchInterruptedError) Unwrap() error {
	return ErrBatchInterrupted
}

// /////////////////////////////////////////////////////////////////

// batchItem is the part of an entry the composition rules look at.
type batchItem struct {
	Operation string `validate:"required,oneof=insert update delete query"`
	ID        string `validate:"required_unless=Operation insert,excluded_if=Operation insert"`
	Content   bool   `validate:"required_if=Operation insert,excluded_if=Operation query"`
}

// BatchURL returns the batch link of feed.
func BatchURL(feed atom.Feeder) (string, error) {
	link := feed.AtomFeed().BatchLink()
	if link == nil || link.Href == "" {
		return "", ErrNoBatchLink
	}

	return link.Href, nil
}

// ComposeBatch checks feed's entries against the batch rules: every entry
// has an operation; inserts carry content and no id; updates, deletes and
// queries carry an id; queries carry no content. Entries without a batch
// id get a random one, and ids must be unique.
func (c *Client) ComposeBatch(feed atom.EntryLister) error {
	seen := make(map[string]int)

	for i, e := range feed.AtomEntries() {
		item := batchItem{
			Operation: e.BatchOp(),
			ID:        e.ID.String(),
			Content:   e.Content != nil,
		}
		if err := validate.Check(item); err != nil {
			return &BatchCompositionError{Index: i, BatchID: e.BatchID.String(), Err: err}
		}

		if e.BatchID.String() == "" {
			e.SetBatch(item.Operation, uuid.NewString())
		}

		id := e.BatchID.String()
		if first, ok := seen[id]; ok {
			return &BatchCompositionError{Index: i, BatchID: id, Err: fmt.Errorf("%w: also on entry %d", ErrDuplicateBatchID, first)}
		}
		seen[id] = i

		if item.Operation == atom.BatchUpdate && e.ETag == "" {
			c.logger.Warn("batch update without etag", "batch_id", id, "id", item.ID)
		}
	}

	return nil
}

// Batch composes feed, POSTs it to target, usually the batch link of the
// parent feed, and parses the response feed into dst. A batch:interrupted
// response yields a [*BatchInterruptedError]; per-entry statuses are left
// to [Correlate].
func (c *Client) Batch(ctx context.Context, target string, feed atom.EntryLister, dst any, opts ...RequestOption) error {
	if err := c.ComposeBatch(feed); err != nil {
		return err
	}

	if err := c.roundTrip(ctx, http.MethodPost, target, dst, prepend(WithEntity(feed), opts)...); err != nil {
		return err
	}

	if f, ok := dst.(atom.Feeder); ok {
		return CheckInterrupted(f)
	}

	return nil
}

// CheckInterrupted returns a [*BatchInterruptedError] when feed carries
// batch:interrupted.
func CheckInterrupted(feed atom.Feeder) error {
	in := feed.AtomFeed().Interrupted
	if in == nil {
		return nil
	}

	success, failures, parsed := in.Counts()

	return &BatchInterruptedError{
		Reason:   in.Reason,
		Success:  success,
		Failures: failures,
		Parsed:   parsed,
	}
}

// BatchPair is a response entry with the request entry that shares its
// batch id. HasRequest is false for responses to ids the caller never sent.
type BatchPair[E atom.Entrier] struct {
	ID         string
	Request    E
	Response   E
	HasRequest bool
}

// Status returns the response's batch:status.
func (p BatchPair[E]) Status() *atom.BatchStatus {
	return p.Response.AtomEntry().BatchStatus
}

// BatchResult is the outcome of [Correlate].
type BatchResult[E atom.Entrier] struct {
	// Pairs follow response order.
	Pairs []BatchPair[E]
	// Succeeded holds the response entries with a 2xx status.
	Succeeded []E
}

// Correlate pairs request and response entries by batch id. The result is
// always returned; the error is a [*PartiallyFailedError] when a status is
// outside 2xx or a request got no response.
func Correlate[E atom.Entrier](requests, responses []E) (*BatchResult[E], error) {
	byID := make(map[string]E, len(requests))
	for _, r := range requests {
		byID[r.AtomEntry().BatchID.String()] = r
	}

	result := &BatchResult[E]{Pairs: make([]BatchPair[E], 0, len(responses))}
	failures := make(map[string]BatchFailure)
	answered := make(map[string]bool, len(responses))

	for _, resp := range responses {
		e := resp.AtomEntry()
		id := e.BatchID.String()
		req, ok := byID[id]
		answered[id] = true

		result.Pairs = append(result.Pairs, BatchPair[E]{ID: id, Request: req, Response: resp, HasRequest: ok})

		if e.BatchStatus.OK() {
			result.Succeeded = append(result.Succeeded, resp)
			continue
		}

		f := BatchFailure{Code: e.BatchStatus.StatusCode()}
		if e.BatchStatus != nil {
			f.Reason = e.BatchStatus.Reason
		}
		failures[id] = f
	}

	for id := range byID {
		if !answered[id] {
			failures[id] = BatchFailure{Reason: "no response entry"}
		}
	}

	if len(failures) > 0 {
		return result, &PartiallyFailedError{Failures: failures, Succeeded: len(result.Succeeded)}
	}

	return result, nil
}
