package models

import (
	"log"

	"github.com/craftlane/agency_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Lead{},
		&Client{},
		&Project{},
		&Task{},
		&TimeEntry{},
		&Expense{},
		&Budget{}, &BudgetCategory{},
		&Invoice{}, &InvoiceItem{}, &InvoicePayment{},
		&Activity{},
		&Attachment{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
