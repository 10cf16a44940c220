package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
)

func loginCmd() *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			displayBanner()

			a, err := newApp()
			if err != nil {
				return err
			}

			if email == "" {
				fmt.Print("Email: ")
				if _, err := fmt.Scanln(&email); err != nil {
					return fmt.Errorf("read email: %w", err)
				}
			}
			if password == "" {
				fmt.Print("Password: ")
				raw, err := terminal.ReadPassword(int(syscall.Stdin))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(string(raw))
			}

			if _, err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			user := a.store.User()
			if user != nil && user.Username != "" {
				fmt.Printf("Logged in as %s (%s)\n", user.Username, a.gate.Label())
			} else {
				fmt.Printf("Logged in (%s)\n", a.gate.Label())
			}
			fmt.Printf("Landing view: %s\n", a.gate.Home())
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")
	_ = cmd.Flags().MarkHidden("password")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Logged out")
			return nil
		},
	}
}
