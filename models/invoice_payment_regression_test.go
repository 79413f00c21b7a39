package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
)

func TestInvoicePaymentLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "agency_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// The activity hooks require a user in context; the bootstrap admin
	// lands at id 1 in a fresh database.
	ctx = utils.SetContextUserId(ctx, 1)
	ctx = utils.SetContextUserName(ctx, "Test Admin")
	admin, err := models.CreateUser(ctx, &models.NewUser{
		Name:     "Test Admin",
		Email:    "admin@lifecycle.test",
		Password: "admin1234",
		Role:     models.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	ctx = utils.SetContextUserId(ctx, admin.ID)
	ctx = utils.SetContextUserEmail(ctx, admin.Email)
	ctx = utils.SetContextUserRole(ctx, string(models.UserRoleAdmin))
	ctx = utils.SetContextIsAdmin(ctx, true)

	client, err := models.CreateClient(ctx, &models.NewClient{
		Name:  "Flores Retail",
		Email: "ap@flores.example",
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	invoice, err := models.CreateInvoice(ctx, &models.NewInvoice{
		ClientId:  client.ID,
		IssueDate: models.NewDate(2026, time.January, 15),
		DueDate:   models.NewDate(2026, time.February, 14),
		Items: []models.NewInvoiceItem{
			{Description: "Sprint development", Quantity: decimal.NewFromInt(80), UnitPrice: decimal.NewFromInt(95), TaxRate: decimal.NewFromInt(5)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.Status != models.InvoiceStatusDraft {
		t.Fatalf("expected new invoice to be DRAFT, got %s", invoice.Status)
	}
	if !invoice.Total.Equal(decimal.NewFromInt(8980)) {
		t.Fatalf("expected total 8980 (8600 + 380 tax), got %s", invoice.Total.String())
	}

	payment := &models.NewInvoicePayment{
		Amount:      decimal.NewFromInt(4000),
		PaymentDate: models.NewDate(2026, time.January, 20),
		Method:      models.PaymentMethodBankTransfer,
		Reference:   "TEST-0001",
	}

	// Payments are rejected until the invoice goes out.
	if _, err := models.RecordPayment(ctx, invoice.ID, payment); err == nil {
		t.Fatalf("expected payment on a draft invoice to fail")
	} else if _, ok := utils.AsConflictError(err); !ok {
		t.Fatalf("expected a conflict error, got %T: %v", err, err)
	}

	sent, err := models.SendInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	if sent.Status != models.InvoiceStatusSent {
		t.Fatalf("expected SENT after sending, got %s", sent.Status)
	}
	if _, err := models.SendInvoice(ctx, invoice.ID); err == nil {
		t.Fatalf("expected second send to fail")
	}

	partial, err := models.RecordPayment(ctx, invoice.ID, payment)
	if err != nil {
		t.Fatalf("RecordPayment(partial): %v", err)
	}
	if partial.Status != models.InvoiceStatusPartiallyPaid {
		t.Fatalf("expected PARTIALLY_PAID, got %s", partial.Status)
	}
	if !partial.PaidTotal.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("expected paidTotal 4000, got %s", partial.PaidTotal.String())
	}

	// Balance due is 4980; overpaying must be rejected.
	over := &models.NewInvoicePayment{
		Amount:      decimal.NewFromInt(6000),
		PaymentDate: models.NewDate(2026, time.January, 25),
		Method:      models.PaymentMethodCard,
	}
	if _, err := models.RecordPayment(ctx, invoice.ID, over); err == nil {
		t.Fatalf("expected overpayment to fail")
	} else if ce, ok := utils.AsConflictError(err); !ok {
		t.Fatalf("expected a conflict error, got %T: %v", err, err)
	} else if _, found := ce.Details["balanceDue"]; !found {
		t.Fatalf("expected the conflict to carry the balance due, got %v", ce.Details)
	}

	rest := &models.NewInvoicePayment{
		Amount:      decimal.NewFromInt(4980),
		PaymentDate: models.NewDate(2026, time.February, 1),
		Method:      models.PaymentMethodBankTransfer,
		Reference:   "TEST-0002",
	}
	paid, err := models.RecordPayment(ctx, invoice.ID, rest)
	if err != nil {
		t.Fatalf("RecordPayment(rest): %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid {
		t.Fatalf("expected PAID after settling the balance, got %s", paid.Status)
	}
	if len(paid.Payments) != 2 {
		t.Fatalf("expected 2 payments on the invoice, got %d", len(paid.Payments))
	}

	// Invoices with recorded payments cannot be deleted.
	if _, err := models.DeleteInvoice(ctx, invoice.ID); err == nil {
		t.Fatalf("expected delete of a paid invoice to fail")
	} else if _, ok := utils.AsConflictError(err); !ok {
		t.Fatalf("expected a conflict error, got %T: %v", err, err)
	}
}

func TestLeadConversionIsOneShot(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "agency_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetContextUserId(ctx, 1)
	ctx = utils.SetContextUserName(ctx, "Test Admin")
	admin, err := models.CreateUser(ctx, &models.NewUser{
		Name:     "Test Admin",
		Email:    "admin@convert.test",
		Password: "admin1234",
		Role:     models.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	ctx = utils.SetContextUserId(ctx, admin.ID)
	ctx = utils.SetContextUserEmail(ctx, admin.Email)
	ctx = utils.SetContextUserRole(ctx, string(models.UserRoleAdmin))
	ctx = utils.SetContextIsAdmin(ctx, true)

	lead, err := models.CreateLead(ctx, &models.NewLead{
		Name:           "Jonas Lund",
		Email:          "jonas@lund.example",
		Company:        "Lund Furniture",
		Status:         models.LeadStatusNegotiation,
		Source:         models.LeadSourceReferral,
		EstimatedValue: decimal.NewFromInt(48000),
	})
	if err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	converted, err := models.ConvertLead(ctx, lead.ID, &models.ConvertLeadInput{
		ClientOverrides: &models.ClientOverrides{Industry: "Furniture"},
	})
	if err != nil {
		t.Fatalf("ConvertLead: %v", err)
	}
	if converted.LeadId == nil || *converted.LeadId != lead.ID {
		t.Fatalf("expected the client to point back at lead %d, got %v", lead.ID, converted.LeadId)
	}
	if converted.CompanyName != "Lund Furniture" || converted.Industry != "Furniture" {
		t.Fatalf("expected lead fields plus overrides on the client, got %+v", converted)
	}
	if !converted.ContractValue.Equal(decimal.NewFromInt(48000)) {
		t.Fatalf("expected contract value carried from the lead, got %s", converted.ContractValue.String())
	}

	refetched, err := models.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if refetched.Status != models.LeadStatusClosedWon {
		t.Fatalf("expected the lead to close as won, got %s", refetched.Status)
	}
	if refetched.ConvertedClientId == nil || *refetched.ConvertedClientId != converted.ID {
		t.Fatalf("expected convertedClientId %d, got %v", converted.ID, refetched.ConvertedClientId)
	}
	if refetched.ConvertedAt == nil {
		t.Fatalf("expected convertedAt to be set")
	}

	// A closed lead cannot convert again.
	if _, err := models.ConvertLead(ctx, lead.ID, nil); err == nil {
		t.Fatalf("expected second conversion to fail")
	} else if ce, ok := utils.AsConflictError(err); !ok {
		t.Fatalf("expected a conflict error, got %T: %v", err, err)
	} else if ce.Details["status"] != string(models.LeadStatusClosedWon) {
		t.Fatalf("expected the conflict to carry the closed status, got %v", ce.Details)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("agency-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("agency-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=agency_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
