// Command dashboard serves the customer churn dashboard over HTTP, or renders
// it once to a file with the snapshot sub-command.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/app"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the root command without a
// sub-command starts the server.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Customer churn analysis dashboard",
		Long:          `Loads the Telco customer churn table, derives churn features and renders a page of summary charts plus a data preview.`,
		Version:       fmt.Sprintf("%s (build %s)", app.VERSION, app.BuildID),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./configs/config.yaml)")
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(app.Options{ConfigPath: cfgFile, Console: stdout})
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	var outputPath string
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the dashboard once and write the HTML page",
		Long:  `Runs the same pipeline as GET / and writes the page to --output, or stdout when --output is "-". Logs go to stderr.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(app.Options{ConfigPath: cfgFile, Console: stderr})
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.Context(), application, outputPath, stdout)
		},
	}
	snapshotCmd.Flags().StringVarP(&outputPath, "output", "o", "-", "output file for the HTML page, - for stdout")

	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd, snapshotCmd)
	return rootCmd
}

// writeSnapshot renders into memory first so a failed run leaves an existing
// output file untouched.
func writeSnapshot(ctx context.Context, application *app.Application, outputPath string, stdout io.Writer) error {
	var buf bytes.Buffer
	if err := application.Snapshot(ctx, &buf); err != nil {
		return err
	}

	if outputPath == "" || outputPath == "-" {
		_, err := buf.WriteTo(stdout)
		return err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", outputPath, err)
	}
	application.Logger.InfoContext(ctx, "Snapshot written",
		slog.String("path", outputPath),
		slog.Int("bytes", buf.Len()),
		slog.String("dataset", application.Config.Dataset.Path))
	return nil
}
