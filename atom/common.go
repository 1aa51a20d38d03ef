package atom

// Common holds the children feeds and entries share.
type Common struct {
	ID           *Value      `gdata:"atom:id"`
	Title        *Text       `gdata:"atom:title"`
	Updated      *Value      `gdata:"atom:updated"`
	Authors      []*Person   `gdata:"atom:author"`
	Contributors []*Person   `gdata:"atom:contributor"`
	Categories   []*Category `gdata:"atom:category"`
	Links        []*Link     `gdata:"atom:link"`
	Rights       *Text       `gdata:"atom:rights"`
}

// Link returns the first link with the given relation, or nil.
func (c *Common) Link(rel string) *Link {
	for _, l := range c.Links {
		if l != nil && l.Rel == rel {
			return l
		}
	}

	return nil
}

// Href returns the href of the first link with the given relation.
func (c *Common) Href(rel string) string {
	if l := c.Link(rel); l != nil {
		return l.Href
	}

	return ""
}

// SetLink replaces the first link with the same relation or appends one.
func (c *Common) SetLink(rel, typ, href string) {
	if l := c.Link(rel); l != nil {
		l.Type = typ
		l.Href = href
		return
	}

	c.Links = append(c.Links, &Link{Rel: rel, Type: typ, Href: href})
}

func (c *Common) SelfLink() *Link      { return c.Link(RelSelf) }
func (c *Common) EditLink() *Link      { return c.Link(RelEdit) }
func (c *Common) EditMediaLink() *Link { return c.Link(RelEditMedia) }
func (c *Common) NextLink() *Link      { return c.Link(RelNext) }
func (c *Common) PreviousLink() *Link  { return c.Link(RelPrevious) }
func (c *Common) AlternateLink() *Link { return c.Link(RelAlternate) }
func (c *Common) FeedLink() *Link      { return c.Link(RelFeed) }
func (c *Common) PostLink() *Link      { return c.Link(RelPost) }
func (c *Common) BatchLink() *Link     { return c.Link(RelBatch) }

// Kind returns the term of the category in the GData kind scheme.
func (c *Common) Kind() string {
	for _, cat := range c.Categories {
		if cat != nil && cat.Scheme == KindScheme {
			return cat.Term
		}
	}

	return ""
}

// SetKind sets the GData kind category.
func (c *Common) SetKind(term string) {
	for _, cat := range c.Categories {
		if cat != nil && cat.Scheme == KindScheme {
			cat.Term = term
			return
		}
	}

	c.Categories = append(c.Categories, &Category{Scheme: KindScheme, Term: term})
}
