package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/rapport/internal/domain"
	"github.com/andy/rapport/internal/service"
	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage time entries",
	Long:  `List, add, edit and settle time entries.`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}

		report, err := appInstance.ReportService.List(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(report.Rows) == 0 {
			fmt.Println("No entries found")
			return nil
		}

		fmt.Printf("%-5s %-10s %-20s %-30s %6s %12s %-10s\n", "ID", "Date", "Client", "Topic", "Min", "Cost", "Status")
		fmt.Println(strings.Repeat("-", 99))

		for _, row := range report.Rows {
			status := "Open"
			if row.Paid {
				status = "Paid " + row.PaymentMethod
			}
			fmt.Printf("%-5d %-10s %-20s %-30s %6d %12s %-10s\n",
				row.EntryID,
				row.Date.Format(domain.DateLayout),
				truncate(row.Client, 20),
				truncate(row.Topic, 30),
				row.Minutes,
				chf(row.CostOrZero()),
				truncate(status, 10),
			)
		}

		fmt.Println(strings.Repeat("-", 99))
		fmt.Printf("Total: %d entries, %d min, %s (open %s)\n",
			len(report.Rows), report.Totals.Minutes, chf(report.Totals.Cost), chf(report.Totals.OpenCost))
		return nil
	},
}

var entriesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a time entry with its invoices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0], "entry")
		if err != nil {
			return err
		}

		entry, err := appInstance.EntryService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}
		client, err := appInstance.ClientService.Get(ctx, entry.ClientID)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}
		invoices, err := appInstance.InvoiceRepo.ListByEntry(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		fmt.Printf("Entry #%d\n", entry.ID)
		fmt.Printf("  Client:   %s\n", client.Name)
		fmt.Printf("  Date:     %s\n", entry.Date.Format(domain.DateLayout))
		fmt.Printf("  Duration: %d min\n", entry.DurationMinutes)
		fmt.Printf("  Topic:    %s\n", entry.Topic)
		fmt.Printf("  Cost:     %s\n", chf(entry.CostOrZero()))
		if entry.IsPaid {
			fmt.Printf("  Paid:     %s\n", entry.PaymentMethod)
		} else {
			fmt.Println("  Paid:     no")
		}
		for _, inv := range invoices {
			fmt.Printf("  Invoice:  %s (%s)\n", inv.InvoiceNumber, inv.CreatedAt.Format(domain.DateLayout))
		}
		return nil
	},
}

var entriesAddCmd = &cobra.Command{
	Use:   "add [client_id] [minutes] [topic]",
	Short: "Add a time entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		clientID, err := parseID(args[0], "client")
		if err != nil {
			return err
		}
		minutes, err := parseMinutes(args[1])
		if err != nil {
			return err
		}

		in := service.EntryInput{
			ClientID:        clientID,
			DurationMinutes: minutes,
			Topic:           args[2],
		}
		raw, _ := cmd.Flags().GetString("date")
		if in.Date, err = parseDate(raw); err != nil {
			return err
		}
		in.CostOverride, _ = cmd.Flags().GetString("cost")
		if cmd.Flags().Changed("paid") {
			in.Paid = true
			in.PaymentMethod, _ = cmd.Flags().GetString("paid")
		}

		entry, err := appInstance.EntryService.Create(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		fmt.Printf("✓ Time entry created (ID: %d)\n", entry.ID)
		fmt.Printf("  Duration: %d min\n", entry.DurationMinutes)
		fmt.Printf("  Cost: %s\n", chf(entry.CostOrZero()))
		return nil
	},
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a time entry",
	Long: `Edit a time entry. The cost is recomputed from the client's hourly rate
unless --cost is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0], "entry")
		if err != nil {
			return err
		}

		entry, err := appInstance.EntryService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		in := service.EntryInput{
			ClientID:        entry.ClientID,
			Date:            entry.Date,
			DurationMinutes: entry.DurationMinutes,
			Topic:           entry.Topic,
			Paid:            entry.IsPaid,
			PaymentMethod:   entry.PaymentMethod,
		}
		if cmd.Flags().Changed("client") {
			in.ClientID, _ = cmd.Flags().GetInt64("client")
		}
		if cmd.Flags().Changed("date") {
			raw, _ := cmd.Flags().GetString("date")
			if in.Date, err = parseDate(raw); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("minutes") {
			in.DurationMinutes, _ = cmd.Flags().GetInt("minutes")
		}
		if cmd.Flags().Changed("topic") {
			in.Topic, _ = cmd.Flags().GetString("topic")
		}
		in.CostOverride, _ = cmd.Flags().GetString("cost")
		if cmd.Flags().Changed("paid") {
			in.Paid = true
			in.PaymentMethod, _ = cmd.Flags().GetString("paid")
		}
		if unpaid, _ := cmd.Flags().GetBool("unpaid"); unpaid {
			in.Paid = false
			in.PaymentMethod = ""
		}

		entry, err = appInstance.EntryService.Update(ctx, id, in)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		fmt.Printf("✓ Entry updated (ID: %d)\n", entry.ID)
		fmt.Printf("  Cost: %s\n", chf(entry.CostOrZero()))
		return nil
	},
}

var entriesPayCmd = &cobra.Command{
	Use:   "pay [id] [method]",
	Short: "Mark a time entry as paid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "entry")
		if err != nil {
			return err
		}
		entry, err := appInstance.EntryService.MarkPaid(cmd.Context(), id, args[1])
		if err != nil {
			return fmt.Errorf("failed to mark entry as paid: %w", err)
		}
		fmt.Printf("✓ Entry #%d paid (%s)\n", entry.ID, entry.PaymentMethod)
		return nil
	},
}

func parseMinutes(s string) (int, error) {
	m, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: expected minutes", s)
	}
	return m, nil
}

func init() {
	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesShowCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesPayCmd)

	addFilterFlags(entriesListCmd)

	entriesAddCmd.Flags().String("date", "today", "Date of the work (YYYY-MM-DD, 'today', 'yesterday')")
	entriesAddCmd.Flags().String("cost", "", "Manual cost in CHF instead of duration x rate")
	entriesAddCmd.Flags().String("paid", "", "Mark as paid with this payment method")

	entriesEditCmd.Flags().Int64("client", 0, "New client ID")
	entriesEditCmd.Flags().String("date", "", "New date")
	entriesEditCmd.Flags().Int("minutes", 0, "New duration in minutes")
	entriesEditCmd.Flags().String("topic", "", "New topic")
	entriesEditCmd.Flags().String("cost", "", "Manual cost in CHF (omit to recompute)")
	entriesEditCmd.Flags().String("paid", "", "Mark as paid with this payment method")
	entriesEditCmd.Flags().Bool("unpaid", false, "Mark as unpaid")
	entriesEditCmd.MarkFlagsMutuallyExclusive("paid", "unpaid")
}
