package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/client"
	"github.com/adamwoolhether/gdata/element"
	"github.com/adamwoolhether/gdata/query"
)

var (
	getMaxResults int
	getText       string
	getRaw        bool
	deleteETag    string
)

var getCmd = &cobra.Command{
	Use:   "get [target]",
	Short: "Fetch a feed or entry and list it",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [target]",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, db, err := session()
		if err != nil {
			return err
		}
		defer closeDB(db)

		var opts []client.RequestOption
		if deleteETag != "" {
			opts = append(opts, client.WithIfMatch(deleteETag))
		}

		if err := c.Delete(cmd.Context(), args[0], opts...); err != nil {
			return err
		}

		cmd.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	getCmd.Flags().IntVarP(&getMaxResults, "max-results", "n", 0, "page size")
	getCmd.Flags().StringVarP(&getText, "query", "q", "", "full-text query")
	getCmd.Flags().BoolVar(&getRaw, "raw", false, "print the XML as received")
	deleteCmd.Flags().StringVar(&deleteETag, "etag", "", "only delete this version")

	rootCmd.AddCommand(getCmd, deleteCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	c, db, err := session()
	if err != nil {
		return err
	}
	defer closeDB(db)

	q := query.New("").Text(getText)
	if getMaxResults > 0 {
		q.MaxResults(getMaxResults)
	}

	req, err := c.Request(cmd.Context(), http.MethodGet, args[0], client.WithQuery(q))
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if getRaw {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	root, err := element.ReadNode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	switch root.Name {
	case element.N(atom.NS, "feed"):
		var feed atom.Feed
		if err := element.FromNode(root, &feed); err != nil {
			return err
		}

		cmd.Printf("%s (%d of %d)\n", feed.Title, len(feed.Entries), feed.TotalResults.Int())
		for _, e := range feed.Entries {
			printEntry(cmd, e)
		}
		if next := feed.NextLink(); next != nil {
			cmd.Printf("next: %s\n", next.Href)
		}

	case element.N(atom.NS, "entry"):
		var e atom.Entry
		if err := element.FromNode(root, &e); err != nil {
			return err
		}
		printEntry(cmd, &e)

	default:
		return fmt.Errorf("unexpected document element %s", root.Name)
	}

	return nil
}

func printEntry(cmd *cobra.Command, e *atom.Entry) {
	cmd.Printf("%s\t%s\t%s\n", e.Title, e.Href(atom.RelEdit), e.ETag)
}
