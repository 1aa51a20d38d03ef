// Package contacts declares contact entries with their gd name, email,
// phone and organization kinds, group membership, and contact queries.
package contacts

import (
	"fmt"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
	"github.com/adamwoolhether/gdata/query"
)

// NS is the gContact namespace.
const NS = "http://schemas.google.com/contact/2008"

func init() {
	element.RegisterNamespace("gContact", NS)
}

// KindContact marks contact entries.
const KindContact = NS + "#contact"

// Relations of emails, phone numbers and organizations.
const (
	RelHome   = atom.GDataNS + "#home"
	RelWork   = atom.GDataNS + "#work"
	RelOther  = atom.GDataNS + "#other"
	RelMobile = atom.GDataNS + "#mobile"
)

// FeedURL returns the path of a user's contacts feed.
func FeedURL(user, projection string) string {
	return fmt.Sprintf("/m8/feeds/contacts/%s/%s", user, projection)
}

// Name is gd:name.
type Name struct {
	element.OpenContent
	XMLName        element.Name `gdata:"gd:name"`
	GivenName      *atom.Value  `gdata:"gd:givenName"`
	AdditionalName *atom.Value  `gdata:"gd:additionalName"`
	FamilyName     *atom.Value  `gdata:"gd:familyName"`
	NamePrefix     *atom.Value  `gdata:"gd:namePrefix"`
	NameSuffix     *atom.Value  `gdata:"gd:nameSuffix"`
	FullName       *atom.Value  `gdata:"gd:fullName"`
}

// Email is gd:email.
type Email struct {
	element.OpenContent
	XMLName     element.Name `gdata:"gd:email"`
	Address     string       `gdata:"address,attr"`
	Rel         string       `gdata:"rel,attr"`
	Label       string       `gdata:"label,attr"`
	Primary     string       `gdata:"primary,attr"`
	DisplayName string       `gdata:"displayName,attr"`
}

// PhoneNumber is gd:phoneNumber.
type PhoneNumber struct {
	element.OpenContent
	XMLName element.Name `gdata:"gd:phoneNumber"`
	Rel     string       `gdata:"rel,attr"`
	Label   string       `gdata:"label,attr"`
	Primary string       `gdata:"primary,attr"`
	Number  string       `gdata:",chardata"`
}

// Organization is gd:organization.
type Organization struct {
	element.OpenContent
	XMLName element.Name `gdata:"gd:organization"`
	Rel     string       `gdata:"rel,attr"`
	Primary string       `gdata:"primary,attr"`
	Name    *atom.Value  `gdata:"gd:orgName"`
	Title   *atom.Value  `gdata:"gd:orgTitle"`
}

// GroupMembership is gContact:groupMembershipInfo.
type GroupMembership struct {
	element.OpenContent
	XMLName element.Name `gdata:"gContact:groupMembershipInfo"`
	Href    string       `gdata:"href,attr"`
	Deleted string       `gdata:"deleted,attr"`
}

// ContactEntry is one contact.
type ContactEntry struct {
	atom.Entry
	Name          *Name              `gdata:"gd:name"`
	Emails        []*Email           `gdata:"gd:email"`
	PhoneNumbers  []*PhoneNumber     `gdata:"gd:phoneNumber"`
	Organizations []*Organization    `gdata:"gd:organization"`
	Groups        []*GroupMembership `gdata:"gContact:groupMembershipInfo"`
	Deleted       *element.Node      `gdata:"gd:deleted"`
}

// NewContact returns a contact entry of the contact kind.
func NewContact(given, family string) *ContactEntry {
	e := &ContactEntry{Name: &Name{}}
	e.SetKind(KindContact)
	if given != "" {
		e.Name.GivenName = atom.NewValue(given)
	}
	if family != "" {
		e.Name.FamilyName = atom.NewValue(family)
	}

	return e
}

// AddEmail appends an address. The first one added is primary.
func (e *ContactEntry) AddEmail(address, rel string) {
	m := &Email{Address: address, Rel: rel}
	if len(e.Emails) == 0 {
		m.Primary = "true"
	}
	e.Emails = append(e.Emails, m)
}

// PrimaryEmail returns the primary address, or the first one.
func (e *ContactEntry) PrimaryEmail() string {
	for _, m := range e.Emails {
		if m.Primary == "true" {
			return m.Address
		}
	}
	if len(e.Emails) > 0 {
		return e.Emails[0].Address
	}

	return ""
}

// IsDeleted reports whether the entry is a deletion tombstone.
func (e *ContactEntry) IsDeleted() bool {
	return e.Deleted != nil
}

// ContactFeed is a user's contacts.
type ContactFeed struct {
	atom.FeedHead
	Entries []*ContactEntry `gdata:"atom:entry"`
}

// AtomEntries implements atom.EntryLister.
func (f *ContactFeed) AtomEntries() []*atom.Entry {
	return atom.Entries(f.Entries)
}

// ContactQuery adds the contacts parameters to a feed query.
type ContactQuery struct {
	*query.Query
}

// NewContactQuery returns a query against a contacts feed.
func NewContactQuery(feed string) *ContactQuery {
	return &ContactQuery{Query: query.New(feed)}
}

// Group keeps the members of the group with the given id.
func (q *ContactQuery) Group(id string) *ContactQuery { q.Set("group", id); return q }

// ShowDeleted includes tombstones of deleted contacts.
func (q *ContactQuery) ShowDeleted(b bool) *ContactQuery { q.SetBool("showdeleted", b); return q }

func (q *ContactQuery) OrderByLastModified() *ContactQuery { q.OrderBy("lastmodified"); return q }

func (q *ContactQuery) SortOrder(order string) *ContactQuery { q.Set("sortorder", order); return q }
