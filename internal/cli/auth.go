package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kochabx/carelink/core/auth/session"
	chttp "github.com/kochabx/carelink/core/net/http"
	"github.com/kochabx/carelink/service/auth"
)

func (c *CLI) loginCommand() *cobra.Command {
	var (
		creds  auth.Credentials
		signup bool
		name   string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Long: "Sign in with email and password. The password is read from stdin when\n" +
			"--password is not given. With --signup a new account is created first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.connect(cmd, chttp.LoginPath)
			if err != nil {
				return err
			}
			if creds.Password == "" {
				if creds.Password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			svc := auth.New(client)
			var user *session.User
			if signup {
				user, err = svc.Signup(cmd.Context(), auth.Registration{
					Name:     name,
					Email:    creds.Email,
					Password: creds.Password,
					Role:     session.Role(role),
				})
			} else {
				user, err = svc.Login(cmd.Context(), creds)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", describe(user))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&creds.Email, "email", "e", "", "account email")
	flags.StringVarP(&creds.Password, "password", "p", "", "account password")
	flags.BoolVar(&signup, "signup", false, "create the account first")
	flags.StringVar(&name, "name", "", "display name, with --signup")
	flags.StringVar(&role, "role", "", "family or volunteer, with --signup")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.connect(cmd, "/")
			if err != nil {
				return err
			}
			// the local session is gone even if the backend call failed
			if err := auth.New(client).Logout(cmd.Context()); err != nil {
				c.logger.Warn().Err(err).Msg("logout request failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *CLI) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.connect(cmd, "/profile")
			if err != nil {
				return err
			}
			user, err := auth.New(client).Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describe(user))
			return nil
		},
	}
}

func describe(u *session.User) string {
	return fmt.Sprintf("%s <%s> (%s)", u.Name, u.Email, u.Role)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
