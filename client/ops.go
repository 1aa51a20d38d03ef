package client

import (
	"context"
	"net/http"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/uri"
)

// GetFeed fetches target and parses the feed into dst.
func (c *Client) GetFeed(ctx context.Context, target string, dst any, opts ...RequestOption) error {
	return c.roundTrip(ctx, http.MethodGet, target, dst, opts...)
}

// GetEntry fetches target and parses the entry into dst.
func (c *Client) GetEntry(ctx context.Context, target string, dst any, opts ...RequestOption) error {
	return c.roundTrip(ctx, http.MethodGet, target, dst, opts...)
}

// GetNext fetches the page after feed into dst. It reports false, with no
// request made, when feed has no next link.
func (c *Client) GetNext(ctx context.Context, feed atom.Feeder, dst any, opts ...RequestOption) (bool, error) {
	next := feed.AtomFeed().NextLink()
	if next == nil || next.Href == "" {
		return false, nil
	}

	if err := c.roundTrip(ctx, http.MethodGet, next.Href, dst, opts...); err != nil {
		return false, err
	}

	return true, nil
}

// Post creates entity in the collection at target. The server's
// representation is parsed into dst when it is not nil.
func (c *Client) Post(ctx context.Context, target string, entity, dst any, opts ...RequestOption) error {
	return c.roundTrip(ctx, http.MethodPost, target, dst, prepend(WithEntity(entity), opts)...)
}

// PostMedia creates a media resource. With an entity the body is
// multipart/related: the entry first, then media.
func (c *Client) PostMedia(ctx context.Context, target string, entity any, media Part, dst any, opts ...RequestOption) error {
	body := []RequestOption{WithBody(media)}
	if entity != nil {
		body = []RequestOption{WithEntity(entity), WithBody(media)}
	}

	return c.roundTrip(ctx, http.MethodPost, target, dst, append(body, opts...)...)
}

// Put replaces the resource at target with entity. If-Match comes from the
// entity's ETag unless overridden.
func (c *Client) Put(ctx context.Context, target string, entity, dst any, opts ...RequestOption) error {
	return c.roundTrip(ctx, http.MethodPut, target, dst, prepend(WithEntity(entity), opts)...)
}

// Update PUTs entry to its edit link, conditional on its ETag. entry is
// not modified; pass the same value as dst to refresh it.
func (c *Client) Update(ctx context.Context, entry atom.Entrier, dst any, opts ...RequestOption) error {
	edit := entry.AtomEntry().EditLink()
	if edit == nil || edit.Href == "" {
		return ErrNoEditLink
	}

	return c.Put(ctx, edit.Href, entry, dst, opts...)
}

// Delete removes the resource at target.
func (c *Client) Delete(ctx context.Context, target string, opts ...RequestOption) error {
	return c.roundTrip(ctx, http.MethodDelete, target, nil, opts...)
}

// DeleteEntry removes entry through its edit link, falling back to its
// atom:id. The entry's ETag is sent as If-Match.
func (c *Client) DeleteEntry(ctx context.Context, entry atom.Entrier, opts ...RequestOption) error {
	e := entry.AtomEntry()

	target := e.Href(atom.RelEdit)
	if target == "" && e.ID != nil {
		target = e.ID.String()
		if c.cfg.StripIDPrefix {
			u, err := uri.Parse(target)
			if err != nil {
				return err
			}
			u.Scheme, u.Host, u.Port = "", "", 0
			target = u.String()
		}
	}
	if target == "" {
		return ErrNoEditLink
	}

	if e.ETag != "" {
		opts = prepend(WithIfMatch(e.ETag), opts)
	}

	return c.Delete(ctx, target, opts...)
}

func (c *Client) roundTrip(ctx context.Context, method, target string, dst any, opts ...RequestOption) error {
	req, err := c.Request(ctx, method, target, opts...)
	if err != nil {
		return err
	}

	var doOpts []DoOption
	if dst != nil {
		doOpts = append(doOpts, WithDestination(dst))
	}

	resp, err := c.Do(req, doOpts...)
	if err != nil {
		return err
	}
	if dst == nil {
		c.discard(resp)
	}

	return nil
}

func prepend(opt RequestOption, opts []RequestOption) []RequestOption {
	return append([]RequestOption{opt}, opts...)
}
