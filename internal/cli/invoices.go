package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Issue and list invoices",
	Long: `Issue invoices for time entries. Invoices are immutable once issued; the
PDF is written to the invoice output directory.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var clientID *int64
		if cmd.Flags().Changed("client") {
			id, _ := cmd.Flags().GetInt64("client")
			clientID = &id
		}

		invoices, err := appInstance.InvoiceService.ListInvoices(ctx, clientID)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		names, err := clientNames(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-5s %-18s %-25s %-10s %12s %-10s\n", "ID", "Number", "Client", "Date", "Amount", "Entries")
		fmt.Println(strings.Repeat("-", 85))

		for _, invoice := range invoices {
			fmt.Printf("%-5d %-18s %-25s %-10s %12s %-10s\n",
				invoice.ID,
				invoice.InvoiceNumber,
				truncate(names[invoice.ClientID], 25),
				invoice.CreatedAt.Format(domain.DateLayout),
				chf(invoice.Amount),
				joinIDs(invoice.EntryIDs),
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [entry_id]",
	Short: "Issue an invoice for a time entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID, err := parseID(args[0], "entry")
		if err != nil {
			return err
		}

		issued, err := appInstance.InvoiceService.Issue(cmd.Context(), entryID)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return reportIssued(issued, "✓ Invoice created")
	},
}

var invoicesPDFCmd = &cobra.Command{
	Use:   "pdf [invoice_id]",
	Short: "Write the PDF of an existing invoice again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		issued, err := appInstance.InvoiceService.Document(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to render invoice: %w", err)
		}
		return reportIssued(issued, "✓ Invoice written")
	},
}

func reportIssued(issued *service.IssuedInvoice, headline string) error {
	path, err := appInstance.WriteInvoicePDF(issued)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", headline, issued.Invoice.InvoiceNumber)
	fmt.Printf("  Client: %s\n", issued.Client.Name)
	fmt.Printf("  Amount: %s\n", chf(issued.Invoice.Amount))
	fmt.Printf("  PDF: %s\n", path)
	if _, ok := issued.Payment.Get(); !ok {
		fmt.Println("  Entry already paid, no payment slip")
	}
	if issued.SlipErr != nil {
		fmt.Printf("  ! Payment slip could not be rendered: %v\n", issued.SlipErr)
	}
	return nil
}

func clientNames(ctx context.Context) (map[int64]string, error) {
	clients, err := appInstance.ClientService.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	names := make(map[int64]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ",")
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesPDFCmd)

	invoicesListCmd.Flags().Int64("client", 0, "Filter by client ID")
}
