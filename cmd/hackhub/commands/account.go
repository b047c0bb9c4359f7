package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hackhub/internal/user"
)

func registerCmd(e *env) *cobra.Command {
	var name, password, role string
	cmd := &cobra.Command{
		Use:   "register [email]",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := user.ParseRole(role)
			if err != nil {
				return err
			}
			if !e.sessions.Register(cmd.Context(), name, args[0], password, r) {
				return errors.New(e.sessions.Session().Error)
			}
			u, _ := e.sessions.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s (%s)\n", u.Email, u.Role, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&role, "role", string(user.RoleStudent), "student|company|college|mentor")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd(e *env) *cobra.Command {
	var password, role string
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in with an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := user.ParseRole(role)
			if err != nil {
				return err
			}
			if !e.sessions.Login(cmd.Context(), args[0], password, r) {
				return errors.New(e.sessions.Session().Error)
			}
			u, _ := e.sessions.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&role, "role", string(user.RoleStudent), "student|company|college|mentor")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.sessions.Logout(cmd.Context())
		},
	}
}

func whoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := e.requireUser()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(out, "role:    %s\n", u.Role)
			fmt.Fprintf(out, "id:      %s\n", u.ID)
			if u.Avatar != "" {
				fmt.Fprintf(out, "avatar:  %s\n", u.Avatar)
			}
			fmt.Fprintf(out, "updated: %s\n", u.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func profileCmd(e *env) *cobra.Command {
	var name, email, avatar string
	var clearAvatar bool
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the logged-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireUser(); err != nil {
				return err
			}
			var updates []user.ProfileUpdate
			if cmd.Flags().Changed("name") {
				updates = append(updates, user.SetName(name))
			}
			if cmd.Flags().Changed("email") {
				updates = append(updates, user.SetEmail(email))
			}
			if cmd.Flags().Changed("avatar") {
				updates = append(updates, user.SetAvatar(avatar))
			}
			if clearAvatar {
				updates = append(updates, user.ClearAvatar{})
			}
			if len(updates) == 0 {
				return errors.New("nothing to update; pass --name, --email, --avatar or --clear-avatar")
			}
			return e.sessions.UpdateProfile(cmd.Context(), updates...)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	cmd.Flags().BoolVar(&clearAvatar, "clear-avatar", false, "remove the avatar")
	return cmd
}
