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

func listTimeEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.TimeEntryListQuery
		if !bindQuery(c, &query) {
			return
		}

		entries, pagination, summary, err := models.PaginateTimeEntries(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries, "pagination": pagination, "summary": summary})
	}
}

func getTimeEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		entry, err := models.GetTimeEntry(c.Request.Context(), id)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func createTimeEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTimeEntry
		if !bindJSON(c, &input) {
			return
		}

		entry, err := models.CreateTimeEntry(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

func updateTimeEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewTimeEntry
		if !bindJSON(c, &input) {
			return
		}

		entry, err := models.UpdateTimeEntry(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func deleteTimeEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		entry, err := models.DeleteTimeEntry(c.Request.Context(), id)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

// exportTimeEntriesHandler streams the filtered timesheet as an xlsx
// attachment. The same query parameters as the list endpoint apply;
// pagination does not.
func exportTimeEntriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.TimeEntryListQuery
		if !bindQuery(c, &query) {
			return
		}

		entries, err := models.FetchTimeEntriesForExport(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}

		headers := []string{"Date", "Team Member", "Project", "Task", "Hours", "Billable", "Hourly Rate", "Billable Amount", "Description"}
		rows := make([][]interface{}, 0, len(entries))
		for _, entry := range entries {
			var member, project, task string
			if entry.User != nil {
				member = entry.User.Name
			}
			if entry.Project != nil {
				project = entry.Project.Name
			}
			if entry.Task != nil {
				task = entry.Task.Title
			}

			billable := entry.Billable != nil && *entry.Billable
			rate := ""
			amount := ""
			if entry.HourlyRate != nil {
				rate = entry.HourlyRate.StringFixed(2)
				if billable {
					amount = entry.Hours.Mul(*entry.HourlyRate).StringFixed(2)
				}
			}

			rows = append(rows, []interface{}{
				entry.Date.String(), member, project, task,
				entry.Hours.InexactFloat64(), billable, rate, amount, entry.Description,
			})
		}

		buf, err := utils.BuildExcelSheet("Time Entries", headers, rows)
		if err != nil {
			respondError(c, "time entry", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"rows": len(rows),
		}).Info("[timeEntries.export]")

		sendExcel(c, fmt.Sprintf("time-entries-%s.xlsx", time.Now().Format("2006-01-02")), buf)
	}
}
