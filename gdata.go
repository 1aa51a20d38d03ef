// Package gdata builds clients for the Google Data APIs. The request
// pipeline lives in package client; the atom, calendar, contacts,
// spreadsheets and gbase packages describe the documents it moves.
package gdata

import (
	"github.com/adamwoolhether/gdata/client"
)

// NewClient returns a *client.Client configured by opts. Without options
// it talks https to no default host, so targets must be absolute.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
