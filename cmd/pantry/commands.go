package main

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/pkg/jwt"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	importFrom   string
	importTo     string
	expiringDays int
	notifyDays   int
	tokenSubject string
	tokenTTL     int
)

func init() {
	importCmd.Flags().StringVar(&importFrom, "from", "", "first purchase day to import (YYYY-MM-DD, inclusive)")
	importCmd.Flags().StringVar(&importTo, "to", "", "purchase day to stop at (YYYY-MM-DD, exclusive)")
	expiringCmd.Flags().IntVar(&expiringDays, "days", 3, "look-ahead window in days")
	notifyCmd.Flags().IntVar(&notifyDays, "days", 3, "look-ahead window in days")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "name of the client the token is issued to (required)")
	tokenCmd.Flags().IntVar(&tokenTTL, "ttl-hours", 24, "token lifetime in hours")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(expiringCmd)
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(expireCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(tokenCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [receipt-id...]",
	Short: "Import receipts from RECEIPT_DIR",
	Long: `Import receipts into the inventory ledger.

With receipt ids, only those receipts are imported. Otherwise every receipt
purchased in [--from, --to) is imported; an empty bound is open.

Examples:
  pantry import --from 2026-02-01 --to 2026-03-01
  pantry import R-20260212-0001`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var summary domain.ImportSummary
	if len(args) > 0 {
		for _, id := range args {
			summary.Add(a.services.Importer.ImportReceipt(ctx, id))
		}
	} else {
		from, err := parseDayFlag(importFrom, a.services.Location)
		if err != nil {
			return err
		}
		to, err := parseDayFlag(importTo, a.services.Location)
		if err != nil {
			return err
		}
		summary, err = a.services.Importer.ImportRange(ctx, from, to)
		if err != nil {
			return err
		}
	}

	printSummary(cmd.OutOrStdout(), summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d receipt(s) failed to import", summary.Failed)
	}
	return nil
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "List in-stock items",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		items, err := a.services.Inventory.GetInStockItems(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tQTY\tCATEGORY\tSTORAGE\tLAST PURCHASED")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%d\t%s/%s\t%s\t%s\n",
				it.DisplayName, it.TotalQuantity, it.Category, it.Subcategory, it.StorageType,
				it.LastPurchased.In(a.services.Location).Format(time.DateOnly))
		}
		return w.Flush()
	},
}

var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List lots expiring within --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		items, err := a.services.Inventory.GetExpiringSoon(cmd.Context(), expiringDays)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tQTY\tEXPIRES\tDAYS LEFT\tSTORAGE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n",
				it.Name, it.Quantity, it.ExpiryDate.Format(time.DateOnly), it.DaysRemaining, it.StorageType)
		}
		return w.Flush()
	},
}

var consumeCmd = &cobra.Command{
	Use:   "consume <product-name> <count>",
	Short: "Mark units of a product as consumed, oldest expiry first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := domain.ConsumeRequest{ProductName: args[0]}
		count, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		req.Count = count

		utils.InitValidator()
		if err := utils.Validate.Struct(req); err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.services.Inventory.MarkConsumed(cmd.Context(), req.ProductName, req.Count)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "consumed %d of %d %s (%d lot(s) used up)\n", res.Consumed, res.Requested, res.ProductName, res.LotsDepleted)
		if res.Shortfall > 0 {
			fmt.Fprintf(out, "warning: %d more than in stock\n", res.Shortfall)
		}
		return nil
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Move lots past their expiry date to expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.services.Inventory.ExpireOverdue(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d lot(s)\n", n)
		return nil
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Mail a digest of lots expiring within --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if a.services.Notify == nil {
			return errors.New("notify: SMTP is not configured")
		}
		n, err := a.services.Notify.SendExpiringDigest(cmd.Context(), notifyDays)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "digest listed %d item(s)\n", n)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueToken(cmd.Context(), cmd.OutOrStdout())
	},
}

func issueToken(_ context.Context, out io.Writer) error {
	utils.LoadConfig()
	utils.InitValidator()

	req := domain.IssueTokenRequest{Subject: tokenSubject, TTLHour: tokenTTL}
	if err := utils.Validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", domain.MessageFailedIssueToken, err)
	}

	jwtService, err := jwt.NewJWTService(utils.GetConfig("JWT_SECRET"))
	if err != nil {
		return err
	}
	token, expiresAt, err := jwtService.GenerateToken(req.Subject, time.Duration(req.TTLHour)*time.Hour)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.MessageFailedIssueToken, err)
	}

	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "# expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func parseDayFlag(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func printSummary(out io.Writer, s domain.ImportSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECEIPT\tSTORE\tSTATUS\tITEMS\tNOTE")
	for _, r := range s.Receipts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ReceiptID, r.StoreName, r.Status, r.Inserted, r.Error)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nimported %d, duplicates %d, empty %d, failed %d\n", s.Imported, s.Duplicates, s.Empty, s.Failed)
	fmt.Fprintf(out, "items %d (food %d, non-food %d)\n", s.ItemsInserted, s.FoodItems, s.NonFoodItems)
}
