package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/masterfulhomes/dashwise-go/token"
)

func whoamiCmd() *cobra.Command {
	var showClaims bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			snapshot := a.store.Snapshot()
			if !snapshot.Authenticated() {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Printf("Role: %s (%s)\n", snapshot.Role, a.gate.Label())
			if snapshot.User != nil {
				fmt.Printf("User: %s <%s>\n", snapshot.User.Username, snapshot.User.Email)
				if snapshot.User.TenantID != "" {
					fmt.Printf("Tenant: %s\n", snapshot.User.TenantID)
				}
			}

			if showClaims {
				claims, err := token.Decode(snapshot.AccessToken)
				if err != nil {
					return err
				}
				encoded, err := json.MarshalIndent(claims, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(encoded))
				if claims.Expired() {
					fmt.Fprintln(os.Stderr, "Access token is expired; it will refresh on the next request")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showClaims, "claims", false, "print decoded access token claims")
	return cmd
}
