package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciles stored invoice money columns against the rows they are
// derived from: sub_total/tax_total/total from invoice_items, paid_total
// from invoice_payments, and the payment status from those amounts.
// Run it after hand-editing invoice rows in the database.
func main() {
	invoiceID := flag.Int("invoice-id", 0, "Fix a single invoice (default: all)")
	dryRun := flag.Bool("dry-run", true, "Report drift only (no writes)")
	continueOnError := flag.Bool("continue-on-error", true, "Continue when an invoice fails")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	query := db.Preload("Items").Preload("Payments").Order("id ASC")
	if *invoiceID > 0 {
		query = query.Where("id = ?", *invoiceID)
	}
	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		fmt.Fprintf(os.Stderr, "query invoices: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Checking %d invoices\n", len(invoices))

	var drifted, fixed int
	for i := range invoices {
		invoice := &invoices[i]

		// ComputeInvoiceTotals also refreshes each item's Amount in place.
		totals := models.ComputeInvoiceTotals(invoice.Items)
		paidTotal := decimal.Zero
		for _, payment := range invoice.Payments {
			paidTotal = paidTotal.Add(payment.Amount)
		}
		status := models.DerivePaymentStatus(invoice.Status, totals.Total, paidTotal)

		if totals.SubTotal.Equal(invoice.SubTotal) &&
			totals.TaxTotal.Equal(invoice.TaxTotal) &&
			totals.Total.Equal(invoice.Total) &&
			paidTotal.Equal(invoice.PaidTotal) &&
			status == invoice.Status {
			continue
		}
		drifted++

		fmt.Printf("Invoice %s (id=%d) has drift:\n", invoice.InvoiceNumber, invoice.ID)
		fmt.Printf("  stored:   subTotal=%s taxTotal=%s total=%s paidTotal=%s status=%s\n",
			invoice.SubTotal.String(), invoice.TaxTotal.String(), invoice.Total.String(),
			invoice.PaidTotal.String(), invoice.Status)
		fmt.Printf("  computed: subTotal=%s taxTotal=%s total=%s paidTotal=%s status=%s\n",
			totals.SubTotal.String(), totals.TaxTotal.String(), totals.Total.String(),
			paidTotal.String(), status)

		if *dryRun {
			continue
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			err := tx.Session(&gorm.Session{SkipHooks: true}).
				Model(&models.Invoice{}).
				Where("id = ?", invoice.ID).
				Updates(map[string]interface{}{
					"SubTotal":  totals.SubTotal,
					"TaxTotal":  totals.TaxTotal,
					"Total":     totals.Total,
					"PaidTotal": paidTotal,
					"Status":    status,
				}).Error
			if err != nil {
				return err
			}
			for _, item := range invoice.Items {
				err := tx.Model(&models.InvoiceItem{}).
					Where("id = ?", item.ID).
					Update("Amount", item.Amount).Error
				if err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			if *continueOnError {
				fmt.Fprintf(os.Stderr, "  failed (skipping): %v\n", err)
				continue
			}
			fmt.Fprintf(os.Stderr, "  failed: %v\n", err)
			os.Exit(1)
		}
		fixed++
	}

	if *dryRun {
		fmt.Printf("Dry run complete: %d of %d invoices have drift (re-run with --dry-run=false to fix)\n", drifted, len(invoices))
		return
	}
	fmt.Printf("invoice totals fix complete: %d of %d invoices fixed\n", fixed, len(invoices))
}
