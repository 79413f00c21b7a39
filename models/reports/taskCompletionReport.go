package reports

import (
	"context"
	"database/sql"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
)

type ProjectTaskCompletion struct {
	ProjectId      int              `json:"projectId"`
	ProjectName    string           `json:"projectName"`
	TotalTasks     int64            `json:"totalTasks"`
	ByStatus       map[string]int64 `json:"byStatus"`
	CompletionRate float64          `json:"completionRate"`
}

// GetTaskCompletionReport buckets every project's tasks by status and
// derives a completion rate per project. Projects without tasks still
// get a row.
func GetTaskCompletionReport(ctx context.Context) ([]*ProjectTaskCompletion, error) {
	db := config.GetDB()

	query := `
		SELECT
			projects.id,
			projects.name,
			tasks.status,
			COUNT(tasks.id) AS task_count
		FROM projects
		LEFT JOIN tasks ON tasks.project_id = projects.id
		GROUP BY projects.id, projects.name, tasks.status
		ORDER BY projects.name, projects.id`

	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*ProjectTaskCompletion, 0)
	byProject := map[int]*ProjectTaskCompletion{}
	for rows.Next() {
		var (
			projectId   int
			projectName string
			status      sql.NullString
			taskCount   int64
		)
		if err := rows.Scan(&projectId, &projectName, &status, &taskCount); err != nil {
			return nil, err
		}

		row, ok := byProject[projectId]
		if !ok {
			row = &ProjectTaskCompletion{
				ProjectId:   projectId,
				ProjectName: projectName,
				ByStatus:    fillStatuses(nil, models.AllTaskStatuses()),
			}
			byProject[projectId] = row
			results = append(results, row)
		}
		// a NULL status is the join's way of saying the project has no tasks
		if !status.Valid {
			continue
		}
		row.ByStatus[status.String] = taskCount
		row.TotalTasks += taskCount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, row := range results {
		row.CompletionRate = models.CompletionRate(row.ByStatus)
	}
	return results, nil
}
