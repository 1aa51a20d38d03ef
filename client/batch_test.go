package client_test

import (
	"context"
	"errors"
	"path"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/client"
	"github.com/adamwoolhether/gdata/gdatatest"
)

func batchEntry(op, batchID, id string, content bool) *atom.Entry {
	e := &atom.Entry{}
	if op != "" {
		e.SetBatch(op, batchID)
	} else if batchID != "" {
		e.BatchID = atom.NewValue(batchID)
	}
	if id != "" {
		e.ID = atom.NewValue(id)
	}
	if content {
		e.Content = atom.NewContent("body")
	}

	return e
}

func TestComposeBatch(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	tests := map[string]struct {
		entries []*atom.Entry
		index   int
		wantErr error
	}{
		"valid": {
			entries: []*atom.Entry{
				batchEntry(atom.BatchInsert, "", "", true),
				batchEntry(atom.BatchUpdate, "u", "http://x/1", true),
				batchEntry(atom.BatchDelete, "", "http://x/2", false),
				batchEntry(atom.BatchQuery, "q", "http://x/3", false),
			},
		},
		"missing operation": {
			entries: []*atom.Entry{batchEntry("", "a", "", true)},
			index:   0,
			wantErr: client.ErrBatchComposition,
		},
		"insert with id": {
			entries: []*atom.Entry{batchEntry(atom.BatchInsert, "a", "http://x/1", true)},
			index:   0,
			wantErr: client.ErrBatchComposition,
		},
		"insert without content": {
			entries: []*atom.Entry{batchEntry(atom.BatchInsert, "a", "", false)},
			index:   0,
			wantErr: client.ErrBatchComposition,
		},
		"update without id": {
			entries: []*atom.Entry{batchEntry(atom.BatchInsert, "a", "", true), batchEntry(atom.BatchUpdate, "b", "", true)},
			index:   1,
			wantErr: client.ErrBatchComposition,
		},
		"query with content": {
			entries: []*atom.Entry{batchEntry(atom.BatchQuery, "a", "http://x/1", true)},
			index:   0,
			wantErr: client.ErrBatchComposition,
		},
		"duplicate batch id": {
			entries: []*atom.Entry{batchEntry(atom.BatchDelete, "a", "http://x/1", false), batchEntry(atom.BatchQuery, "a", "http://x/2", false)},
			index:   1,
			wantErr: client.ErrDuplicateBatchID,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := c.ComposeBatch(&atom.Feed{Entries: tt.entries})

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				for i, e := range tt.entries {
					if e.BatchID.String() == "" {
						t.Errorf("entry %d: expected a generated batch id", i)
					}
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			var ce *client.BatchCompositionError
			if !errors.As(err, &ce) || ce.Index != tt.index {
				t.Fatalf("expected composition error at %d, got %v", tt.index, err)
			}
		})
	}
}

func TestBatchRoundTrip(t *testing.T) {
	srv := gdatatest.NewServer()
	defer srv.Close()

	c := newClient(t, srv)
	ctx := context.Background()

	seeded := srv.Seed("contacts", atom.NewEntry("Ann", ""), atom.NewEntry("Bob", ""))

	var feed atom.Feed
	if err := c.GetFeed(ctx, "/feeds/contacts", &feed); err != nil {
		t.Fatalf("failed to get feed: %v", err)
	}
	target, err := client.BatchURL(&feed)
	if err != nil {
		t.Fatalf("failed to find batch link: %v", err)
	}

	update := *seeded[0]
	update.Title = atom.NewText("Annie")

	requests := []*atom.Entry{
		batchEntry(atom.BatchInsert, "new", "", true),
		batchEntry(atom.BatchDelete, "bob", seeded[1].ID.String(), false),
		batchEntry(atom.BatchQuery, "ghost", srv.FeedURL("contacts")+"/missing", false),
		&update,
	}
	update.SetBatch(atom.BatchUpdate, "ann")

	var resp atom.Feed
	if err := c.Batch(ctx, target, &atom.Feed{Entries: requests}, &resp); err != nil {
		t.Fatalf("failed to run batch: %v", err)
	}

	result, err := client.Correlate(requests, resp.Entries)

	var pf *client.PartiallyFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected partial failure, got %v", err)
	}

	want := map[string]client.BatchFailure{"ghost": {Code: 404, Reason: "Not Found"}}
	if diff := cmp.Diff(want, pf.Failures); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if len(result.Succeeded) != 3 || pf.Succeeded != 3 {
		t.Errorf("expected 3 successes, got %d", len(result.Succeeded))
	}
	for _, p := range result.Pairs {
		if !p.HasRequest {
			t.Errorf("response %s has no request", p.ID)
		}
	}

	got, ok := srv.Entry("contacts", path.Base(seeded[0].ID.String()))
	if !ok || got.Title.String() != "Annie" {
		t.Errorf("expected updated entry, got %+v", got)
	}
}

func TestBatchInterrupted(t *testing.T) {
	srv := gdatatest.NewServer()
	defer srv.Close()

	c := newClient(t, srv)

	// Post skips composition, so the server sees the unknown operation.
	req := &atom.Feed{Entries: []*atom.Entry{
		batchEntry(atom.BatchInsert, "a", "", true),
		batchEntry("merge", "b", "http://x/1", true),
	}}

	var resp atom.Feed
	if err := c.Post(context.Background(), "/feeds/notes/batch", req, &resp); err != nil {
		t.Fatalf("failed to post batch: %v", err)
	}

	err := client.CheckInterrupted(&resp)

	var bi *client.BatchInterruptedError
	if !errors.As(err, &bi) {
		t.Fatalf("expected interruption, got %v", err)
	}
	if bi.Success != 1 || bi.Parsed != 2 {
		t.Errorf("unexpected counters %+v", bi)
	}
}

func TestCorrelateMissingResponse(t *testing.T) {
	ok := batchEntry(atom.BatchQuery, "a", "http://x/1", false)
	lost := batchEntry(atom.BatchQuery, "b", "http://x/2", false)

	answer := batchEntry(atom.BatchQuery, "a", "http://x/1", false)
	answer.BatchStatus = &atom.BatchStatus{Code: "200", Reason: "Success"}

	result, err := client.Correlate([]*atom.Entry{ok, lost}, []*atom.Entry{answer})

	var pf *client.PartiallyFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if f := pf.Failures["b"]; f.Reason != "no response entry" {
		t.Errorf("unexpected failure %+v", f)
	}
	if len(result.Pairs) != 1 || result.Pairs[0].Request != ok {
		t.Errorf("unexpected pairs %+v", result.Pairs)
	}
}
