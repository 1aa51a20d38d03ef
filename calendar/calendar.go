// Package calendar declares calendar event entries, the gd:when, gd:where
// and gd:who kinds they carry, and event feed queries.
package calendar

import (
	"fmt"
	"time"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
	"github.com/adamwoolhether/gdata/query"
)

// NS is the gCal namespace.
const NS = "http://schemas.google.com/gCal/2005"

func init() {
	element.RegisterNamespace("gCal", NS)
}

// KindEvent marks event entries.
const KindEvent = atom.GDataNS + "#event"

// Event status values.
const (
	StatusConfirmed = atom.GDataNS + "#event.confirmed"
	StatusTentative = atom.GDataNS + "#event.tentative"
	StatusCanceled  = atom.GDataNS + "#event.canceled"
)

// FeedURL returns the path of a user's event feed, e.g.
// FeedURL("default", "private", "full").
func FeedURL(user, visibility, projection string) string {
	return fmt.Sprintf("/calendar/feeds/%s/%s/%s", user, visibility, projection)
}

// Reminder is gd:reminder.
type Reminder struct {
	element.OpenContent
	XMLName element.Name `gdata:"gd:reminder"`
	Minutes string       `gdata:"minutes,attr"`
	Method  string       `gdata:"method,attr"`
}

// When is gd:when. All-day events use dates without a time.
type When struct {
	element.OpenContent
	XMLName     element.Name `gdata:"gd:when"`
	StartTime   string       `gdata:"startTime,attr"`
	EndTime     string       `gdata:"endTime,attr"`
	ValueString string       `gdata:"valueString,attr"`
	Reminders   []*Reminder  `gdata:"gd:reminder"`
}

// NewWhen returns a timed span. Offsets are kept as given.
func NewWhen(start, end time.Time) *When {
	return &When{StartTime: start.Format(time.RFC3339), EndTime: end.Format(time.RFC3339)}
}

// Start parses StartTime.
func (w *When) Start() (time.Time, error) {
	return parseTime(w.StartTime)
}

// End parses EndTime.
func (w *When) End() (time.Time, error) {
	return parseTime(w.EndTime)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, s)
}

// Where is gd:where.
type Where struct {
	element.OpenContent
	XMLName     element.Name `gdata:"gd:where"`
	Rel         string       `gdata:"rel,attr"`
	Label       string       `gdata:"label,attr"`
	ValueString string       `gdata:"valueString,attr"`
}

// Who is gd:who, an event participant.
type Who struct {
	element.OpenContent
	XMLName     element.Name `gdata:"gd:who"`
	Email       string       `gdata:"email,attr"`
	Rel         string       `gdata:"rel,attr"`
	ValueString string       `gdata:"valueString,attr"`
}

// EnumValue is an element whose only content is a value attribute, such as
// gd:eventStatus or gd:transparency.
type EnumValue struct {
	element.OpenContent
	Value string `gdata:"value,attr"`
}

// EventEntry is a calendar event.
type EventEntry struct {
	atom.Entry
	When         []*When     `gdata:"gd:when"`
	Where        []*Where    `gdata:"gd:where"`
	Who          []*Who      `gdata:"gd:who"`
	EventStatus  *EnumValue  `gdata:"gd:eventStatus"`
	Transparency *EnumValue  `gdata:"gd:transparency"`
	Recurrence   *atom.Value `gdata:"gd:recurrence"`
}

// NewEvent returns an event entry of the event kind.
func NewEvent(title, description string, when *When) *EventEntry {
	e := &EventEntry{Entry: *atom.NewEntry(title, description)}
	e.SetKind(KindEvent)
	if when != nil {
		e.When = []*When{when}
	}

	return e
}

// EventFeed is a calendar's events.
type EventFeed struct {
	atom.FeedHead
	TimeZone *EnumValue    `gdata:"gCal:timezone"`
	Entries  []*EventEntry `gdata:"atom:entry"`
}

// AtomEntries implements atom.EntryLister.
func (f *EventFeed) AtomEntries() []*atom.Entry {
	return atom.Entries(f.Entries)
}

// EventQuery adds the calendar parameters to a feed query.
type EventQuery struct {
	*query.Query
}

// NewEventQuery returns a query against an event feed.
func NewEventQuery(feed string) *EventQuery {
	return &EventQuery{Query: query.New(feed)}
}

// StartMin keeps events ending after t.
func (q *EventQuery) StartMin(t time.Time) *EventQuery { q.setTime("start-min", t); return q }

// StartMax keeps events starting before t.
func (q *EventQuery) StartMax(t time.Time) *EventQuery { q.setTime("start-max", t); return q }

// SingleEvents expands recurring events into instances.
func (q *EventQuery) SingleEvents(b bool) *EventQuery { q.SetBool("singleevents", b); return q }

func (q *EventQuery) FutureEvents(b bool) *EventQuery { q.SetBool("futureevents", b); return q }

// OrderByStartTime sorts by start time instead of last modification.
func (q *EventQuery) OrderByStartTime() *EventQuery { q.OrderBy("starttime"); return q }

func (q *EventQuery) SortOrder(order string) *EventQuery { q.Set("sortorder", order); return q }

// TimeZone renders times in tz, e.g. "America/Los_Angeles".
func (q *EventQuery) TimeZone(tz string) *EventQuery { q.Set("ctz", tz); return q }

func (q *EventQuery) setTime(key string, t time.Time) {
	if t.IsZero() {
		q.Set(key, "")
		return
	}
	q.Set(key, t.Format(time.RFC3339))
}
