package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/gdata/auth"
)

var (
	authsubNext    string
	authsubScopes  []string
	authsubSecure  bool
	authsubSession bool
	authsubDomain  string
	upgradeName    string
)

var authsubURLCmd = &cobra.Command{
	Use:   "authsub-url",
	Short: "Print the URL that starts the AuthSub web flow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, db, err := session()
		if err != nil {
			return err
		}
		defer closeDB(db)

		u, err := c.AuthSubURL(auth.WebFlowRequest{
			Next:    authsubNext,
			Scopes:  authsubScopes,
			Secure:  authsubSecure,
			Session: authsubSession,
			Domain:  authsubDomain,
		})
		if err != nil {
			return err
		}

		cmd.Println(u.String())
		return nil
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [callback-url]",
	Short: "Upgrade the single-use token in an AuthSub callback and save it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		single, err := auth.TokenFromCallback(args[0], "")
		if err != nil {
			return err
		}

		c, db, err := session()
		if err != nil {
			return err
		}
		defer closeDB(db)

		tok, err := c.UpgradeToken(cmd.Context(), single)
		if err != nil {
			return err
		}
		if err := db.Put(upgradeName, tok); err != nil {
			return err
		}

		cmd.Printf("saved token %s\n", upgradeName)
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [name]",
	Short: "Revoke a saved AuthSub token and forget it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, db, err := session()
		if err != nil {
			return err
		}
		defer closeDB(db)

		tok, err := db.Get(args[0])
		if err != nil {
			return err
		}
		if err := c.RevokeToken(cmd.Context(), tok); err != nil {
			return fmt.Errorf("revoke failed: %w", err)
		}

		return db.Delete(args[0])
	},
}

func init() {
	authsubURLCmd.Flags().StringVar(&authsubNext, "next", "", "URL the user returns to")
	authsubURLCmd.Flags().StringSliceVar(&authsubScopes, "scope", nil, "feed URL prefix to grant (repeatable)")
	authsubURLCmd.Flags().BoolVar(&authsubSecure, "secure", false, "request a secure token")
	authsubURLCmd.Flags().BoolVar(&authsubSession, "session", true, "allow upgrading to a session token")
	authsubURLCmd.Flags().StringVar(&authsubDomain, "domain", "", "hosted domain")
	upgradeCmd.Flags().StringVar(&upgradeName, "name", "authsub", "key to save the token under")

	rootCmd.AddCommand(authsubURLCmd, upgradeCmd, revokeCmd)
}
