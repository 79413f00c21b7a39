package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
)

func listExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.ExpenseListQuery
		if !bindQuery(c, &query) {
			return
		}

		expenses, pagination, summary, err := models.PaginateExpenses(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": expenses, "pagination": pagination, "summary": summary})
	}
}

func getExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		expense, err := models.GetExpense(c.Request.Context(), id)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func createExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewExpense
		if !bindJSON(c, &input) {
			return
		}

		expense, err := models.CreateExpense(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusCreated, expense)
	}
}

func updateExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewExpense
		if !bindJSON(c, &input) {
			return
		}

		expense, err := models.UpdateExpense(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func deleteExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		expense, err := models.DeleteExpense(c.Request.Context(), id)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusOK, expense)
	}
}

func approveExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		expense, err := models.ApproveExpense(c.Request.Context(), id)
		if err != nil {
			respondError(c, "expense", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"expense_id": expense.ID,
		}).Info("[expenses.approve]")

		c.JSON(http.StatusOK, expense)
	}
}

func rejectExpenseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		var input models.RejectExpenseInput
		if c.Request.ContentLength > 0 {
			if !bindJSON(c, &input) {
				return
			}
		}

		expense, err := models.RejectExpense(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "expense", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"expense_id": expense.ID,
		}).Info("[expenses.reject]")

		c.JSON(http.StatusOK, expense)
	}
}

func bulkUpdateExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.BulkExpenseInput
		if !bindJSON(c, &input) {
			return
		}

		updated, err := models.BulkUpdateExpenses(c.Request.Context(), input.Ids, input.Update)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func bulkDeleteExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.BulkExpenseInput
		if !bindJSON(c, &input) {
			return
		}

		deleted, err := models.BulkDeleteExpenses(c.Request.Context(), input.Ids)
		if err != nil {
			respondError(c, "expense", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

func exportExpensesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.ExpenseListQuery
		if !bindQuery(c, &query) {
			return
		}

		expenses, err := models.FetchExpensesForExport(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "expense", err)
			return
		}

		headers := []string{"Date", "Description", "Category", "Vendor", "Amount", "Tax", "Status", "Reimbursable", "Project", "Submitted By", "Notes"}
		rows := make([][]interface{}, 0, len(expenses))
		for _, expense := range expenses {
			var project, submitter string
			if expense.Project != nil {
				project = expense.Project.Name
			}
			if expense.User != nil {
				submitter = expense.User.Name
			}

			rows = append(rows, []interface{}{
				expense.Date.String(), expense.Description, string(expense.Category), expense.Vendor,
				expense.Amount.InexactFloat64(), expense.TaxAmount.InexactFloat64(),
				string(expense.Status), expense.Reimbursable != nil && *expense.Reimbursable,
				project, submitter, expense.Notes,
			})
		}

		buf, err := utils.BuildExcelSheet("Expenses", headers, rows)
		if err != nil {
			respondError(c, "expense", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"rows": len(rows),
		}).Info("[expenses.export]")

		sendExcel(c, fmt.Sprintf("expenses-%s.xlsx", time.Now().Format("2006-01-02")), buf)
	}
}
