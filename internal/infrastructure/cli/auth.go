package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
)

var (
	loginUsername string
	loginPassword string

	registerUsername string
	registerEmail    string
	registerPassword string
	registerFullName string

	whoamiJSON bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		creds := auth.Credentials{Username: loginUsername, Password: loginPassword}
		if err := newPrompter(cmd).fill(
			promptField{label: "Username: ", target: &creds.Username},
			promptField{label: "Password: ", target: &creds.Password, secret: true},
		); err != nil {
			return err
		}

		if err := services.Auth.Login(cmd.Context(), creds); err != nil {
			return authError(services.Auth.State().Error, "Check your username and password", err)
		}
		user := services.Auth.State().User
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.DisplayName())
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		data := auth.Registration{
			Username: registerUsername,
			Email:    registerEmail,
			Password: registerPassword,
			FullName: registerFullName,
		}
		if err := newPrompter(cmd).fill(
			promptField{label: "Username: ", target: &data.Username},
			promptField{label: "Email: ", target: &data.Email},
			promptField{label: "Password: ", target: &data.Password, secret: true},
		); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return MapError(err)
		}

		if err := services.Auth.Register(cmd.Context(), data); err != nil {
			return authError(services.Auth.State().Error, "", err)
		}
		user := services.Auth.State().User
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are now logged in.\n", user.DisplayName())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		if err := services.Auth.Logout(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadSession()
		if err != nil {
			return err
		}
		user := services.Auth.State().User
		out := cmd.OutOrStdout()
		if user == nil {
			fmt.Fprintln(out, "Logged in (no profile stored)")
			return nil
		}
		if whoamiJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(user)
		}
		fmt.Fprintf(out, "%s <%s>\n", user.Username, user.Email)
		if user.FullName != "" {
			fmt.Fprintf(out, "Name:    %s\n", user.FullName)
		}
		fmt.Fprintf(out, "User ID: %d\n", user.UserID)
		return nil
	},
}

// authError prefers the message the auth store recorded.
func authError(message, hint string, err error) error {
	mapped := MapError(err)
	if message == "" {
		return mapped
	}
	e := NewCLIError(message, hint, err)
	if cliErr, ok := mapped.(*CLIError); ok {
		e.ExitCode = cliErr.ExitCode
		if hint == "" {
			e.Hint = cliErr.Hint
		}
	}
	return e
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")

	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Email address")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerFullName, "full-name", "", "Full name")

	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output in JSON format")

	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(registerCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(whoamiCmd)
}
