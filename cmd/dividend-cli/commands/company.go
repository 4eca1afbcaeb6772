package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(companyCmd)
}

var companyCmd = &cobra.Command{
	Use:   "company <ticker>",
	Short: "Resolves a ticker into the company name the server would register.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		company, err := client.ScrapeCompany(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Ticker", "Name"})
		t.AppendRow(table.Row{company.Ticker, company.Name})
		t.Render()
		return nil
	},
}
