package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/masterfulhomes/dashwise-go/access"
)

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Fetch an API resource as JSON",
		Long: `Fetch an authenticated API resource and print the JSON response.

Token refresh is transparent: an expired access token is refreshed and
the request replayed without intervention.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			switch path {
			case "/installations":
				installations, err := a.api.ListInstallations(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(installations)
			case "/invoices":
				invoices, err := a.api.ListInvoices(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(invoices)
			case "/customers":
				customers, err := a.api.ListCustomers(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(customers)
			default:
				var out any
				if err := a.api.Raw(cmd.Context(), path, &out); err != nil {
					return err
				}
				return printJSON(out)
			}
		},
	}
}

func navCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nav <destination>",
		Short: "Check whether the current session may open a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			result := a.gate.Decide(args[0])
			switch result.Decision {
			case access.Allow:
				fmt.Println("allow")
			default:
				fmt.Printf("%s -> %s\n", result.Decision, result.RedirectTo)
			}
			return nil
		},
	}
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
