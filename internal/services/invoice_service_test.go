package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"factura/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceTestSuite struct {
	suite.Suite
	repo    *MockInvoiceRepository
	service *invoiceService
	ctx     context.Context
	now     time.Time
}

func (suite *InvoiceServiceTestSuite) SetupTest() {
	suite.repo = &MockInvoiceRepository{}
	suite.ctx = context.Background()
	suite.now = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	svc := NewInvoiceService(suite.repo)
	suite.service = svc.(*invoiceService)
	suite.service.nowFn = func() time.Time { return suite.now }

	suite.repo.Test(suite.T())
}

func (suite *InvoiceServiceTestSuite) TearDownTest() {
	suite.repo.AssertExpectations(suite.T())
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_DraftToSent() {
	invoice := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusDraft}
	suite.repo.On("GetByID", suite.ctx, invoice.ID).Return(invoice, nil)
	suite.repo.On("UpdateStatus", suite.ctx, invoice.ID, models.InvoiceStatusSent).Return(nil)

	err := suite.service.UpdateInvoiceStatus(suite.ctx, invoice.ID, models.InvoiceStatusSent)
	suite.NoError(err)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_MarkingPaidStampsPaidDate() {
	invoice := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusSent}
	suite.repo.On("GetByID", suite.ctx, invoice.ID).Return(invoice, nil)

	var updated *models.Invoice
	suite.repo.On("Update", suite.ctx, mock.AnythingOfType("*models.Invoice")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*models.Invoice)
		}).Return(nil)

	err := suite.service.UpdateInvoiceStatus(suite.ctx, invoice.ID, models.InvoiceStatusPaid)
	suite.NoError(err)
	suite.Require().NotNil(updated)
	suite.Equal(models.InvoiceStatusPaid, updated.Status)
	suite.Require().NotNil(updated.PaidDate)
	suite.Equal(suite.now, *updated.PaidDate)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_PaidIsTerminal() {
	invoice := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusPaid}
	suite.repo.On("GetByID", suite.ctx, invoice.ID).Return(invoice, nil)

	err := suite.service.UpdateInvoiceStatus(suite.ctx, invoice.ID, models.InvoiceStatusSent)
	suite.Error(err)
	suite.repo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_DraftCannotBePaidDirectly() {
	invoice := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusDraft}
	suite.repo.On("GetByID", suite.ctx, invoice.ID).Return(invoice, nil)

	err := suite.service.UpdateInvoiceStatus(suite.ctx, invoice.ID, models.InvoiceStatusPaid)
	suite.Error(err)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_SameStatusIsNoOp() {
	invoice := &models.Invoice{ID: uuid.New(), Status: models.InvoiceStatusSent}
	suite.repo.On("GetByID", suite.ctx, invoice.ID).Return(invoice, nil)

	err := suite.service.UpdateInvoiceStatus(suite.ctx, invoice.ID, models.InvoiceStatusSent)
	suite.NoError(err)
	suite.repo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestMarkOverdueInvoices() {
	first := &models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2025-02-000001", Status: models.InvoiceStatusSent}
	second := &models.Invoice{ID: uuid.New(), InvoiceNumber: "INV-2025-02-000002", Status: models.InvoiceStatusSent}

	suite.repo.On("ListPastDue", suite.ctx, suite.now).Return([]*models.Invoice{first, second}, nil)
	suite.repo.On("UpdateStatus", suite.ctx, first.ID, models.InvoiceStatusOverdue).Return(nil)
	suite.repo.On("UpdateStatus", suite.ctx, second.ID, models.InvoiceStatusOverdue).
		Return(errors.New("conflict"))

	marked, err := suite.service.MarkOverdueInvoices(suite.ctx)
	suite.NoError(err)
	suite.Equal(1, marked)
}
