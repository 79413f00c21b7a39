// seed loads a small demo dataset: an admin plus three team members
// with known passwords, leads in every stage, clients, projects with
// tasks, logged time, expenses in mixed states, two budgets and three
// invoices (one partially paid). Activity rows come out of the model
// hooks the same way they would in normal operation.
//
// The run is idempotent: if the admin user already exists the tool
// reports and exits without touching anything.
//
// Usage (same env as the server; redis is needed for invoice numbering):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... REDIS_ADDRESS=... go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
)

const (
	adminEmail    = "admin@agency.test"
	adminPassword = "admin1234"
	// every non-admin seed account uses this password
	memberPassword = "member1234"
)

func intPtr(v int) *int { return &v }

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// daysFromNow keeps seeded dates relative so the dashboard always has
// current-month data to show.
func daysFromNow(days int) models.Date {
	t := time.Now().AddDate(0, 0, days)
	return models.NewDate(t.Year(), t.Month(), t.Day())
}

func datePtr(d models.Date) *models.Date { return &d }

func fatal(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

func main() {
	ctx := context.Background()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var adminCount int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", adminEmail).Count(&adminCount).Error; err != nil {
		fatal("lookup admin user", err)
	}
	if adminCount > 0 {
		fmt.Printf("demo data already present (%s exists); nothing to do\n", adminEmail)
		return
	}

	// The activity hooks refuse writes without a user in context. On a
	// fresh database the admin lands at id 1, so the bootstrap event is
	// self-attributed.
	ctx = utils.SetContextUserId(ctx, 1)
	ctx = utils.SetContextUserName(ctx, "Alex Morgan")

	admin, err := models.CreateUser(ctx, &models.NewUser{
		Name:     "Alex Morgan",
		Email:    adminEmail,
		Password: adminPassword,
		Role:     models.UserRoleAdmin,
	})
	if err != nil {
		fatal("create admin", err)
	}

	// Attribute everything from here on to the admin so activity rows
	// carry a real user.
	ctx = utils.SetContextUserId(ctx, admin.ID)
	ctx = utils.SetContextUserEmail(ctx, admin.Email)
	ctx = utils.SetContextUserName(ctx, admin.Name)
	ctx = utils.SetContextUserRole(ctx, string(models.UserRoleAdmin))
	ctx = utils.SetContextIsAdmin(ctx, true)

	members := seedTeam(ctx)
	manager, devA, devB := members[0], members[1], members[2]

	seedLeads(ctx, manager.ID, devA.ID)
	clients := seedClients(ctx)
	projects := seedProjects(ctx, clients, manager.ID)
	tasks := seedTasks(ctx, projects, devA.ID, devB.ID)
	seedTimeEntries(ctx, tasks, devA.ID, devB.ID)
	seedExpenses(ctx, projects, devA.ID, devB.ID)
	seedBudgets(ctx, projects, clients)
	seedInvoices(ctx, clients, projects)

	fmt.Println("demo data seeded")
	fmt.Printf("  admin login:  %s / %s\n", adminEmail, adminPassword)
	fmt.Printf("  member login: %s / %s (and two more)\n", members[0].Email, memberPassword)
}

func seedTeam(ctx context.Context) []*models.User {
	inputs := []*models.NewUser{
		{Name: "Priya Shah", Email: "priya@agency.test", Password: memberPassword, Role: models.UserRoleManager},
		{Name: "Daniel Reyes", Email: "daniel@agency.test", Password: memberPassword, Role: models.UserRoleMember},
		{Name: "Mei Tanaka", Email: "mei@agency.test", Password: memberPassword, Role: models.UserRoleMember},
	}

	users := make([]*models.User, 0, len(inputs))
	for _, input := range inputs {
		user, err := models.CreateUser(ctx, input)
		if err != nil {
			fatal("create team member "+input.Email, err)
		}
		users = append(users, user)
	}
	fmt.Printf("seeded %d team members\n", len(users))
	return users
}

func seedLeads(ctx context.Context, managerId, memberId int) {
	inputs := []*models.NewLead{
		{Name: "Jordan Wells", Company: "Brightline Media", Email: "jordan@brightline.test", Status: models.LeadStatusNew,
			Source: models.LeadSourceWebsite, Priority: models.LeadPriorityMedium, EstimatedValue: money(12000), AssignedToId: intPtr(managerId)},
		{Name: "Sofia Marino", Company: "Marino Interiors", Email: "sofia@marino.test", Status: models.LeadStatusNew,
			Source: models.LeadSourceReferral, Priority: models.LeadPriorityLow, EstimatedValue: money(4500)},
		{Name: "Ben Okafor", Company: "Okafor Logistics", Email: "ben@okafor.test", Status: models.LeadStatusContacted,
			Source: models.LeadSourceColdCall, Priority: models.LeadPriorityMedium, EstimatedValue: money(18000), AssignedToId: intPtr(memberId)},
		{Name: "Hannah Lee", Company: "Northgate Clinic", Email: "hannah@northgate.test", Status: models.LeadStatusQualified,
			Source: models.LeadSourceEvent, Priority: models.LeadPriorityHigh, EstimatedValue: money(32000), AssignedToId: intPtr(managerId)},
		{Name: "Marcus Webb", Company: "Webb & Sons", Email: "marcus@webb.test", Status: models.LeadStatusProposal,
			Source: models.LeadSourceEmailCampaign, Priority: models.LeadPriorityHigh, EstimatedValue: money(26000), AssignedToId: intPtr(managerId)},
		{Name: "Ingrid Holm", Company: "Holm Analytics", Email: "ingrid@holm.test", Status: models.LeadStatusNegotiation,
			Source: models.LeadSourceWebsite, Priority: models.LeadPriorityHigh, EstimatedValue: money(41000), AssignedToId: intPtr(managerId)},
		{Name: "Tom Barrett", Company: "Barrett Roofing", Email: "tom@barrett.test", Status: models.LeadStatusClosedWon,
			Source: models.LeadSourceReferral, Priority: models.LeadPriorityMedium, EstimatedValue: money(15000)},
		{Name: "Laura Quinn", Company: "Quinn Fitness", Email: "laura@quinn.test", Status: models.LeadStatusClosedLost,
			Source: models.LeadSourceSocialMedia, Priority: models.LeadPriorityLow, EstimatedValue: money(8000),
			Notes: "went with an in-house hire"},
	}

	for _, input := range inputs {
		if _, err := models.CreateLead(ctx, input); err != nil {
			fatal("create lead "+input.Name, err)
		}
	}
	fmt.Printf("seeded %d leads\n", len(inputs))
}

func seedClients(ctx context.Context) []*models.Client {
	inputs := []*models.NewClient{
		{Name: "Nadia Flores", CompanyName: "Flores Retail Group", Email: "nadia@floresretail.test",
			Industry: "Retail", Status: models.ClientStatusActive, ContractValue: money(85000), City: "Austin", Country: "US"},
		{Name: "Peter Chen", CompanyName: "Lumen Health", Email: "peter@lumenhealth.test",
			Industry: "Healthcare", Status: models.ClientStatusActive, ContractValue: money(120000), City: "Seattle", Country: "US"},
		{Name: "Amara Diallo", CompanyName: "Diallo Finance", Email: "amara@diallofinance.test",
			Industry: "Finance", Status: models.ClientStatusActive, ContractValue: money(64000), City: "London", Country: "GB"},
		{Name: "Erik Lund", CompanyName: "Lund Furniture", Email: "erik@lundfurniture.test",
			Industry: "Manufacturing", Status: models.ClientStatusInactive, ContractValue: money(30000), City: "Oslo", Country: "NO"},
	}

	clients := make([]*models.Client, 0, len(inputs))
	for _, input := range inputs {
		client, err := models.CreateClient(ctx, input)
		if err != nil {
			fatal("create client "+input.CompanyName, err)
		}
		clients = append(clients, client)
	}
	fmt.Printf("seeded %d clients\n", len(clients))
	return clients
}

func seedProjects(ctx context.Context, clients []*models.Client, managerId int) []*models.Project {
	inputs := []*models.NewProject{
		{Name: "Flores E-commerce Replatform", ClientId: clients[0].ID, ManagerId: intPtr(managerId),
			Status: models.ProjectStatusInProgress, Priority: models.PriorityHigh,
			StartDate: datePtr(daysFromNow(-45)), EndDate: datePtr(daysFromNow(75)), BudgetAmount: money(60000),
			Description: "Storefront rebuild plus order pipeline integration"},
		{Name: "Lumen Patient Portal", ClientId: clients[1].ID, ManagerId: intPtr(managerId),
			Status: models.ProjectStatusInProgress, Priority: models.PriorityUrgent,
			StartDate: datePtr(daysFromNow(-30)), EndDate: datePtr(daysFromNow(90)), BudgetAmount: money(95000)},
		{Name: "Lumen Brand Refresh", ClientId: clients[1].ID,
			Status: models.ProjectStatusPlanning, Priority: models.PriorityMedium,
			StartDate: datePtr(daysFromNow(20)), BudgetAmount: money(25000)},
		{Name: "Diallo Reporting Suite", ClientId: clients[2].ID, ManagerId: intPtr(managerId),
			Status: models.ProjectStatusOnHold, Priority: models.PriorityMedium,
			StartDate: datePtr(daysFromNow(-60)), BudgetAmount: money(40000),
			Description: "Paused pending compliance review"},
		{Name: "Lund Catalog Site", ClientId: clients[3].ID,
			Status: models.ProjectStatusCompleted, Priority: models.PriorityLow,
			StartDate: datePtr(daysFromNow(-120)), EndDate: datePtr(daysFromNow(-15)), BudgetAmount: money(18000)},
	}

	projects := make([]*models.Project, 0, len(inputs))
	for _, input := range inputs {
		project, err := models.CreateProject(ctx, input)
		if err != nil {
			fatal("create project "+input.Name, err)
		}
		projects = append(projects, project)
	}
	fmt.Printf("seeded %d projects\n", len(projects))
	return projects
}

func seedTasks(ctx context.Context, projects []*models.Project, devA, devB int) []*models.Task {
	type taskSeed struct {
		project  int
		title    string
		status   models.TaskStatus
		priority models.Priority
		assignee *int
		due      *models.Date
		hours    decimal.Decimal
	}

	seeds := []taskSeed{
		{0, "Catalog data migration", models.TaskStatusDone, models.PriorityHigh, intPtr(devA), datePtr(daysFromNow(-20)), money(24)},
		{0, "Checkout flow implementation", models.TaskStatusInProgress, models.PriorityHigh, intPtr(devA), datePtr(daysFromNow(10)), money(40)},
		{0, "Payment gateway sandbox tests", models.TaskStatusTodo, models.PriorityMedium, intPtr(devB), datePtr(daysFromNow(18)), money(16)},
		{0, "Search relevance tuning", models.TaskStatusTodo, models.PriorityLow, nil, datePtr(daysFromNow(-2)), money(12)},
		{1, "Auth and account linking", models.TaskStatusDone, models.PriorityUrgent, intPtr(devB), datePtr(daysFromNow(-12)), money(32)},
		{1, "Appointment booking API", models.TaskStatusInProgress, models.PriorityHigh, intPtr(devB), datePtr(daysFromNow(7)), money(48)},
		{1, "Lab results view", models.TaskStatusReview, models.PriorityHigh, intPtr(devA), datePtr(daysFromNow(3)), money(20)},
		{1, "Accessibility audit", models.TaskStatusTodo, models.PriorityMedium, nil, datePtr(daysFromNow(-5)), money(14)},
		{1, "Push notification rollout", models.TaskStatusTodo, models.PriorityMedium, intPtr(devA), datePtr(daysFromNow(25)), money(18)},
		{2, "Moodboard and direction", models.TaskStatusTodo, models.PriorityMedium, nil, nil, money(10)},
		{2, "Logo exploration", models.TaskStatusTodo, models.PriorityLow, nil, nil, money(12)},
		{3, "Warehouse metrics spec", models.TaskStatusDone, models.PriorityMedium, intPtr(devA), datePtr(daysFromNow(-50)), money(8)},
		{3, "Data pipeline prototype", models.TaskStatusCancelled, models.PriorityMedium, intPtr(devB), nil, money(30)},
		{4, "Product photography import", models.TaskStatusDone, models.PriorityLow, intPtr(devB), datePtr(daysFromNow(-40)), money(10)},
		{4, "Launch checklist", models.TaskStatusDone, models.PriorityMedium, intPtr(devA), datePtr(daysFromNow(-16)), money(6)},
	}

	// a few unassigned backlog items to round the board out
	backlog := []string{"Error budget review", "Content entry", "Analytics dashboard", "QA regression pass", "Client training session"}
	for i, title := range backlog {
		seeds = append(seeds, taskSeed{i % 2, title, models.TaskStatusTodo, models.PriorityLow, nil, nil, money(4)})
	}

	tasks := make([]*models.Task, 0, len(seeds))
	for _, s := range seeds {
		task, err := models.CreateTask(ctx, &models.NewTask{
			Title:          s.title,
			ProjectId:      projects[s.project].ID,
			AssigneeId:     s.assignee,
			Status:         s.status,
			Priority:       s.priority,
			DueDate:        s.due,
			EstimatedHours: s.hours,
		})
		if err != nil {
			fatal("create task "+s.title, err)
		}
		tasks = append(tasks, task)
	}
	fmt.Printf("seeded %d tasks\n", len(tasks))
	return tasks
}

func seedTimeEntries(ctx context.Context, tasks []*models.Task, devA, devB int) {
	rate := money(95)
	entries := []*models.NewTimeEntry{
		{TaskId: tasks[0].ID, UserId: intPtr(devA), Date: daysFromNow(-22), Hours: money(6), Billable: utils.NewTrue(), HourlyRate: &rate, Description: "schema mapping"},
		{TaskId: tasks[0].ID, UserId: intPtr(devA), Date: daysFromNow(-21), Hours: money(7.5), Billable: utils.NewTrue(), HourlyRate: &rate},
		{TaskId: tasks[1].ID, UserId: intPtr(devA), Date: daysFromNow(-3), Hours: money(5), Billable: utils.NewTrue(), HourlyRate: &rate, Description: "cart state handling"},
		{TaskId: tasks[1].ID, UserId: intPtr(devA), Date: daysFromNow(-1), Hours: money(6.5), Billable: utils.NewTrue(), HourlyRate: &rate},
		{TaskId: tasks[4].ID, UserId: intPtr(devB), Date: daysFromNow(-14), Hours: money(8), Billable: utils.NewTrue(), HourlyRate: &rate},
		{TaskId: tasks[5].ID, UserId: intPtr(devB), Date: daysFromNow(-2), Hours: money(7), Billable: utils.NewTrue(), HourlyRate: &rate, Description: "slot conflict handling"},
		{TaskId: tasks[6].ID, UserId: intPtr(devA), Date: daysFromNow(-4), Hours: money(4), Billable: utils.NewTrue(), HourlyRate: &rate},
		{TaskId: tasks[6].ID, UserId: intPtr(devA), Date: daysFromNow(-2), Hours: money(2.5), Billable: utils.NewFalse(), Description: "internal review prep"},
		{TaskId: tasks[11].ID, UserId: intPtr(devA), Date: daysFromNow(-52), Hours: money(5), Billable: utils.NewTrue(), HourlyRate: &rate},
		{TaskId: tasks[14].ID, UserId: intPtr(devA), Date: daysFromNow(-17), Hours: money(3), Billable: utils.NewFalse()},
	}

	for _, input := range entries {
		if _, err := models.CreateTimeEntry(ctx, input); err != nil {
			fatal("create time entry", err)
		}
	}
	fmt.Printf("seeded %d time entries\n", len(entries))
}

func seedExpenses(ctx context.Context, projects []*models.Project, devA, devB int) {
	tax := money(4.2)
	inputs := []*models.NewExpense{
		{Description: "Client kickoff travel", Category: models.ExpenseCategoryTravel, Amount: money(420), TaxAmount: &tax,
			Date: daysFromNow(-25), Vendor: "United", ProjectId: intPtr(projects[0].ID), UserId: intPtr(devA), Reimbursable: utils.NewTrue()},
		{Description: "Design tool licenses", Category: models.ExpenseCategorySoftware, Amount: money(168),
			Date: daysFromNow(-20), Vendor: "Figma", ProjectId: intPtr(projects[1].ID)},
		{Description: "Team lunch with client", Category: models.ExpenseCategoryMeals, Amount: money(96.4),
			Date: daysFromNow(-9), Vendor: "Blue Door Bistro", ProjectId: intPtr(projects[0].ID), UserId: intPtr(devB), Reimbursable: utils.NewTrue()},
		{Description: "Load testing credits", Category: models.ExpenseCategorySoftware, Amount: money(250),
			Date: daysFromNow(-6), Vendor: "k6 Cloud", ProjectId: intPtr(projects[1].ID)},
		{Description: "Conference workshop", Category: models.ExpenseCategoryTraining, Amount: money(540),
			Date: daysFromNow(-4), Vendor: "GopherCon", UserId: intPtr(devA), Reimbursable: utils.NewTrue()},
		{Description: "Second monitor", Category: models.ExpenseCategoryEquipment, Amount: money(310),
			Date: daysFromNow(-3), Vendor: "Dell", UserId: intPtr(devB), Reimbursable: utils.NewTrue()},
		{Description: "Sponsored posts", Category: models.ExpenseCategoryMarketing, Amount: money(200),
			Date: daysFromNow(-2), Vendor: "LinkedIn"},
		{Description: "Office supplies restock", Category: models.ExpenseCategoryOfficeSupplies, Amount: money(76.9),
			Date: daysFromNow(-1), Vendor: "Staples"},
	}

	expenses := make([]*models.Expense, 0, len(inputs))
	for _, input := range inputs {
		expense, err := models.CreateExpense(ctx, input)
		if err != nil {
			fatal("create expense "+input.Description, err)
		}
		expenses = append(expenses, expense)
	}

	// walk a few through the approval flow so every status shows up
	if _, err := models.ApproveExpense(ctx, expenses[0].ID); err != nil {
		fatal("approve expense", err)
	}
	if _, err := models.ApproveExpense(ctx, expenses[1].ID); err != nil {
		fatal("approve expense", err)
	}
	if _, err := models.RejectExpense(ctx, expenses[6].ID, &models.RejectExpenseInput{Reason: "no campaign budget this quarter"}); err != nil {
		fatal("reject expense", err)
	}
	reimbursed := models.ExpenseStatusReimbursed
	if _, err := models.BulkUpdateExpenses(ctx, []int{expenses[2].ID}, &models.ExpenseBulkUpdate{Status: &reimbursed}); err != nil {
		fatal("reimburse expense", err)
	}

	fmt.Printf("seeded %d expenses\n", len(expenses))
}

func seedBudgets(ctx context.Context, projects []*models.Project, clients []*models.Client) {
	inputs := []*models.NewBudget{
		{Name: "Flores Replatform Budget", Period: models.BudgetPeriodProject,
			StartDate: daysFromNow(-45), EndDate: daysFromNow(75), TotalAmount: money(60000),
			ProjectId: intPtr(projects[0].ID),
			Categories: []models.NewBudgetCategory{
				{Category: models.ExpenseCategoryTravel, AllocatedAmount: money(5000)},
				{Category: models.ExpenseCategorySoftware, AllocatedAmount: money(12000)},
				{Category: models.ExpenseCategoryMarketing, AllocatedAmount: money(8000)},
			}},
		{Name: "Lumen Quarterly Budget", Period: models.BudgetPeriodQuarterly,
			StartDate: daysFromNow(-30), EndDate: daysFromNow(60), TotalAmount: money(45000),
			ClientId: intPtr(clients[1].ID),
			Categories: []models.NewBudgetCategory{
				{Category: models.ExpenseCategorySoftware, AllocatedAmount: money(9000)},
				{Category: models.ExpenseCategoryTraining, AllocatedAmount: money(6000)},
			}},
	}

	for _, input := range inputs {
		if _, err := models.CreateBudget(ctx, input); err != nil {
			fatal("create budget "+input.Name, err)
		}
	}
	fmt.Printf("seeded %d budgets\n", len(inputs))
}

func seedInvoices(ctx context.Context, clients []*models.Client, projects []*models.Project) {
	first, err := models.CreateInvoice(ctx, &models.NewInvoice{
		ClientId:  clients[3].ID,
		ProjectId: intPtr(projects[4].ID),
		IssueDate: daysFromNow(-20),
		DueDate:   daysFromNow(10),
		Items: []models.NewInvoiceItem{
			{Description: "Catalog site build", Quantity: money(1), UnitPrice: money(15000), TaxRate: money(5)},
			{Description: "Content entry", Quantity: money(12), UnitPrice: money(120)},
		},
	})
	if err != nil {
		fatal("create invoice", err)
	}
	if _, err := models.SendInvoice(ctx, first.ID); err != nil {
		fatal("send invoice", err)
	}
	if _, err := models.RecordPayment(ctx, first.ID, &models.NewInvoicePayment{
		Amount:      money(8000),
		PaymentDate: daysFromNow(-5),
		Method:      models.PaymentMethodBankTransfer,
		Reference:   "LUND-2201",
	}); err != nil {
		fatal("record payment", err)
	}

	second, err := models.CreateInvoice(ctx, &models.NewInvoice{
		ClientId:  clients[0].ID,
		ProjectId: intPtr(projects[0].ID),
		IssueDate: daysFromNow(-10),
		DueDate:   daysFromNow(20),
		Items: []models.NewInvoiceItem{
			{Description: "Discovery and architecture", Quantity: money(1), UnitPrice: money(9500)},
			{Description: "Sprint 1 development", Quantity: money(80), UnitPrice: money(95), TaxRate: money(5)},
		},
	})
	if err != nil {
		fatal("create invoice", err)
	}
	if _, err := models.SendInvoice(ctx, second.ID); err != nil {
		fatal("send invoice", err)
	}

	// the third stays a draft
	_, err = models.CreateInvoice(ctx, &models.NewInvoice{
		ClientId:  clients[1].ID,
		ProjectId: intPtr(projects[1].ID),
		IssueDate: daysFromNow(0),
		DueDate:   daysFromNow(30),
		Items: []models.NewInvoiceItem{
			{Description: "Portal sprint 2", Quantity: money(60), UnitPrice: money(110), TaxRate: money(5)},
		},
	})
	if err != nil {
		fatal("create invoice", err)
	}

	fmt.Println("seeded 3 invoices")
}
