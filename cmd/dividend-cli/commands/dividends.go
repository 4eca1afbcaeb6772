package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(dividendsCmd)
}

var dividendsCmd = &cobra.Command{
	Use:   "dividends <ticker>",
	Short: "Resolves a ticker and prints its dividend history.",
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
		result, err := client.ScrapeDividends(cmd.Context(), company)
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.SetTitle(fmt.Sprintf("%s (%s)", result.Company.Name, result.Company.Ticker))
		t.AppendHeader(table.Row{"Date", "Dividend"})

		total := decimal.Zero
		for _, dividend := range result.Dividends {
			amount, err := dividend.Decimal()
			if err != nil {
				return err
			}
			total = total.Add(amount)
			t.AppendRow(table.Row{dividend.Date.String(), dividend.Amount})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d payments", len(result.Dividends)), total.String()})
		t.Render()
		return nil
	},
}
