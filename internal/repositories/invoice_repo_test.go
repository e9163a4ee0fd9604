package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"factura/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type InvoiceRepoTestSuite struct {
	suite.Suite
	mock           pgxmock.PgxPoolIface
	repo           InvoiceRepository
	subscriptionID uuid.UUID
	customerID     uuid.UUID
	context        context.Context
}

func (suite *InvoiceRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInvoiceRepo(mock)
	suite.subscriptionID = uuid.New()
	suite.customerID = uuid.New()
	suite.context = context.Background()
}

func (suite *InvoiceRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestInvoiceRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceRepoTestSuite))
}

func (suite *InvoiceRepoTestSuite) sampleInvoice() *models.Invoice {
	cycle := 1
	return &models.Invoice{
		ID:                   uuid.New(),
		InvoiceNumber:        "INV-2025-03-000001",
		CustomerID:           suite.customerID,
		IssueDate:            time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC),
		DueDate:              time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
		Subtotal:             100,
		TaxAmount:            19,
		TotalAmount:          119,
		Status:               models.InvoiceStatusDraft,
		SourceSubscriptionID: &suite.subscriptionID,
		CycleSequence:        &cycle,
		Items: []models.InvoiceItem{
			{Description: "Cleaning service", Quantity: 1, UnitPrice: 100, LineTotal: 100},
		},
	}
}

func (suite *InvoiceRepoTestSuite) TestCreateWithItems_Success() {
	invoice := suite.sampleInvoice()

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, invoice.IssueDate, invoice.DueDate,
			invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount, invoice.Status, invoice.Notes,
			invoice.SourceSubscriptionID, invoice.CycleSequence, invoice.PaidDate).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`INSERT INTO invoice_items`).
		WithArgs(pgxmock.AnyArg(), invoice.ID, "Cleaning service", 1.0, 100.0, 100.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.CreateWithItems(suite.context, invoice)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	assert.Equal(suite.T(), invoice.ID, invoice.Items[0].InvoiceID)
	assert.NotEqual(suite.T(), uuid.Nil, invoice.Items[0].ID)
}

func (suite *InvoiceRepoTestSuite) TestCreateWithItems_RollsBackOnDuplicateCycle() {
	invoice := suite.sampleInvoice()

	suite.mock.ExpectBegin()
	suite.mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, invoice.IssueDate, invoice.DueDate,
			invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount, invoice.Status, invoice.Notes,
			invoice.SourceSubscriptionID, invoice.CycleSequence, invoice.PaidDate).
		WillReturnError(errors.New("duplicate key value violates unique constraint"))
	suite.mock.ExpectRollback()

	err := suite.repo.CreateWithItems(suite.context, invoice)
	assert.Error(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *InvoiceRepoTestSuite) TestGetLastForSubscription_ReturnsLatestCycle() {
	cycle := 4
	issueDate := time.Date(2025, time.February, 13, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "invoice_number", "customer_id", "issue_date", "due_date", "subtotal", "tax_amount",
		"total_amount", "status", "notes", "source_subscription_id", "cycle_sequence", "paid_date",
		"created_at", "updated_at",
	}).AddRow(uuid.New(), "INV-2025-02-000007", suite.customerID, issueDate, issueDate.AddDate(0, 0, 7),
		100.0, 19.0, 119.0, models.InvoiceStatusSent, "", &suite.subscriptionID, &cycle, (*time.Time)(nil),
		time.Now(), time.Now())

	suite.mock.ExpectQuery(`FROM invoices`).
		WithArgs(suite.subscriptionID).
		WillReturnRows(rows)

	invoice, err := suite.repo.GetLastForSubscription(suite.context, suite.subscriptionID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), invoice)
	assert.Equal(suite.T(), "INV-2025-02-000007", invoice.InvoiceNumber)
	assert.Equal(suite.T(), 4, *invoice.CycleSequence)
}

func (suite *InvoiceRepoTestSuite) TestGetLastForSubscription_NoInvoicesYet() {
	suite.mock.ExpectQuery(`FROM invoices`).
		WithArgs(suite.subscriptionID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	invoice, err := suite.repo.GetLastForSubscription(suite.context, suite.subscriptionID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), invoice)
}

func (suite *InvoiceRepoTestSuite) TestListDueOn_SelectsDraftAndSentDueThatDay() {
	dueDate := time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)
	draftCycle := 1
	sentCycle := 2
	rows := pgxmock.NewRows([]string{
		"id", "invoice_number", "customer_id", "issue_date", "due_date", "subtotal", "tax_amount",
		"total_amount", "status", "notes", "source_subscription_id", "cycle_sequence", "paid_date",
		"created_at", "updated_at",
	}).AddRow(uuid.New(), "INV-2025-03-000001", suite.customerID, dueDate.AddDate(0, 0, -7), dueDate,
		100.0, 19.0, 119.0, models.InvoiceStatusDraft, "", &suite.subscriptionID, &draftCycle, (*time.Time)(nil),
		time.Now(), time.Now()).
		AddRow(uuid.New(), "INV-2025-03-000002", suite.customerID, dueDate.AddDate(0, 0, -7), dueDate,
			100.0, 19.0, 119.0, models.InvoiceStatusSent, "", &suite.subscriptionID, &sentCycle, (*time.Time)(nil),
			time.Now(), time.Now())

	// The status filter and day-exact due date predicate are what keep paid
	// and not-yet-due invoices out of reminder runs.
	suite.mock.ExpectQuery(`WHERE status IN \('draft', 'sent'\) AND due_date::date = \$1::date`).
		WithArgs(dueDate).
		WillReturnRows(rows)

	invoices, err := suite.repo.ListDueOn(suite.context, dueDate)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), invoices, 2)
	assert.Equal(suite.T(), models.InvoiceStatusDraft, invoices[0].Status)
	assert.Equal(suite.T(), models.InvoiceStatusSent, invoices[1].Status)
	assert.Equal(suite.T(), dueDate, invoices[0].DueDate)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *InvoiceRepoTestSuite) TestListDueOn_NothingDue() {
	dueDate := time.Date(2025, time.March, 18, 0, 0, 0, 0, time.UTC)
	columns := []string{
		"id", "invoice_number", "customer_id", "issue_date", "due_date", "subtotal", "tax_amount",
		"total_amount", "status", "notes", "source_subscription_id", "cycle_sequence", "paid_date",
		"created_at", "updated_at",
	}

	suite.mock.ExpectQuery(`WHERE status IN \('draft', 'sent'\) AND due_date::date = \$1::date`).
		WithArgs(dueDate).
		WillReturnRows(pgxmock.NewRows(columns))

	invoices, err := suite.repo.ListDueOn(suite.context, dueDate)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), invoices)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *InvoiceRepoTestSuite) TestGenerateInvoiceNumber() {
	issueDate := time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"last_number"}).AddRow(42)

	suite.mock.ExpectQuery(`INSERT INTO invoice_sequences`).
		WithArgs("2025-03").
		WillReturnRows(rows)

	number, err := suite.repo.GenerateInvoiceNumber(suite.context, issueDate)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "INV-2025-03-000042", number)
}

func (suite *InvoiceRepoTestSuite) TestUpdateStatus() {
	id := uuid.New()
	suite.mock.ExpectExec(`UPDATE invoices`).
		WithArgs(models.InvoiceStatusOverdue, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.UpdateStatus(suite.context, id, models.InvoiceStatusOverdue)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}
