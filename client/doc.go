// Package client is the GData request pipeline: it resolves targets
// against per-client defaults, serializes elements, authorizes requests
// from a scope-keyed token store, dispatches through an [http.RoundTripper]
// chain and classifies replies into typed errors.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithHost("www.google.com"),
//		client.WithSource("example-app-1"),
//		client.WithThrottle(10, 5),
//	)
//
// # Reading and Writing
//
// Element classes are parsed straight into the destination:
//
//	var feed atom.Feed
//	err = c.GetFeed(ctx, "/calendar/feeds/default/private/full", &feed,
//		client.WithQuery(query.New("").MaxResults(25)),
//	)
//
//	entry := feed.Entries[0]
//	entry.Title = atom.NewText("Tennis with Beth")
//	err = c.Update(ctx, entry, entry) // If-Match from the entry's ETag
//
// A stale ETag yields ErrVersionConflict; [StatusError.ETag] carries the
// server's current version.
//
// # Batches
//
// [Client.Batch] validates and posts a batch feed; [Correlate] pairs the
// response entries with the requests by batch id.
//
// # Credentials
//
// [Client.ClientLogin], [Client.AuthSubURL], [Client.UpgradeToken] and
// [Client.RevokeToken] drive the flows in package auth and keep the
// client's token store current.
package client
