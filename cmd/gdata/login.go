package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/gdata/auth"
)

var (
	loginEmail         string
	loginService       string
	loginAccountType   string
	loginName          string
	loginCaptchaToken  string
	loginCaptchaAnswer string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange a password for a ClientLogin token",
	Long: `Reads the password from the first line of standard input, exchanges it
for a token and saves the token. When the service asks for a CAPTCHA the
image URL is printed; solve it and run login again with --captcha-token
and --captcha-answer.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginService, "service", "", "service name, e.g. cl or wise")
	loginCmd.Flags().StringVar(&loginAccountType, "account-type", "", "HOSTED_OR_GOOGLE, GOOGLE or HOSTED")
	loginCmd.Flags().StringVar(&loginName, "name", "", "key to save the token under (default email/service)")
	loginCmd.Flags().StringVar(&loginCaptchaToken, "captcha-token", "", "challenge id from a previous attempt")
	loginCmd.Flags().StringVar(&loginCaptchaAnswer, "captcha-answer", "", "solution of the challenge")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("service")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && password == "" {
		return fmt.Errorf("reading password: %w", err)
	}

	c, db, err := session()
	if err != nil {
		return err
	}
	defer closeDB(db)

	tok, err := c.ClientLogin(cmd.Context(), auth.PasswordRequest{
		Email:         loginEmail,
		Password:      strings.TrimRight(password, "\r\n"),
		Service:       loginService,
		AccountType:   loginAccountType,
		CaptchaToken:  loginCaptchaToken,
		CaptchaAnswer: loginCaptchaAnswer,
	})

	var challenge *auth.CaptchaChallengeError
	if errors.As(err, &challenge) {
		cmd.Printf("CAPTCHA required: %s\n", challenge.ImageURL)
		cmd.Printf("retry with --captcha-token %s --captcha-answer <text>\n", challenge.ID)
		return err
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	name := loginName
	if name == "" {
		name = loginEmail + "/" + loginService
	}
	if err := db.Put(name, tok); err != nil {
		return err
	}

	cmd.Printf("saved token %s\n", name)
	return nil
}
