package commands

import (
	"github.com/spf13/cobra"

	"BaseCreator/internal/session"
)

type sessionView struct {
	session.User
	Connected bool `json:"connected"`
}

func viewOf(m *session.Manager) sessionView {
	return sessionView{User: m.GetUser(), Connected: m.IsConnected()}
}

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the wallet session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the current session",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(viewOf(m))
			},
		},
		&cobra.Command{
			Use:   "connect",
			Short: "Request account access from the configured wallet",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				if _, err := m.ConnectWallet(cmd.Context()); err != nil {
					return err
				}
				return a.print(viewOf(m))
			},
		},
		&cobra.Command{
			Use:   "disconnect",
			Short: "Forget the bound account and return to guest",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				m.Disconnect(cmd.Context())
				return a.print(viewOf(m))
			},
		},
	)
	return cmd
}
