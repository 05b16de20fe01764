package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/andy/rapport/internal/repository"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filtered time entries",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export entries as semicolon separated CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "rapporte.csv", func(w io.Writer, f repository.EntryFilter) error {
			return appInstance.ReportService.ExportCSV(cmd.Context(), w, f)
		})
	},
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Export entries as a PDF report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, "rapporte.pdf", func(w io.Writer, f repository.EntryFilter) error {
			return appInstance.ReportService.ExportPDF(cmd.Context(), w, f)
		})
	},
}

// runExport writes the export to --out, or to stdout when --out is "-".
func runExport(cmd *cobra.Command, defaultName string, export func(io.Writer, repository.EntryFilter) error) error {
	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = defaultName
	}
	if out == "-" {
		return export(os.Stdout, filter)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export(f, filter); err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("failed to export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	msg := "✓ Exported to " + out
	if desc := describeFilter(filter); desc != "" {
		msg += " (" + desc + ")"
	}
	fmt.Println(msg)
	return nil
}

func init() {
	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportPDFCmd)

	for _, c := range []*cobra.Command{exportCSVCmd, exportPDFCmd} {
		addFilterFlags(c)
		c.Flags().StringP("out", "o", "", "Output file, '-' for stdout")
	}
}
