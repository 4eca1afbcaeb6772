package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"dividend-backend/lib/restyutil"
	"dividend-backend/lib/scrapers/yahoo"
	"dividend-backend/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	baseUrl string
	timeout time.Duration
	dump    bool
	verbose bool

	noCloudflareBypass bool
)

var rootCmd = &cobra.Command{
	Use:           "dividend-cli",
	Short:         "dividend-cli scrapes company names and dividend histories without running the server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			telemetry.InitSlog(true)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&baseUrl, "base-url", yahoo.DefaultBaseUrl, "The listing site to scrape.")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Timeout of each request.")
	flags.BoolVar(&dump, "dump", false, "Write every http exchange to <dev_state>/resty/cli.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	flags.BoolVar(&noCloudflareBypass, "no-cloudflare-bypass", false, "Use a plain http transport.")
}

func newClient() (*yahoo.Client, error) {
	var output restyutil.InstrumentOutput
	if dump {
		fsOutput, err := restyutil.NewFilesystemOutput("<dev_state>/resty/cli")
		if err != nil {
			return nil, fmt.Errorf("create dump directory: %w", err)
		}
		output = fsOutput
	}
	return yahoo.NewClient(yahoo.ClientOptions{
		BaseUrl:          baseUrl,
		Timeout:          timeout,
		InstrumentOutput: output,

		DisableCloudflareBypass: noCloudflareBypass,
	})
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
