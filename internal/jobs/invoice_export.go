package jobs

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"factura/internal/repositories"
	"factura/internal/services"
)

// InvoiceExporter renders invoices for a date range as CSV and stores the
// file in object storage for download.
type InvoiceExporter struct {
	invoiceRepo repositories.InvoiceRepository
	documents   services.DocumentService
	bucketName  string
}

type ExportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type ExportResult struct {
	FileName        string `json:"file_name"`
	DownloadURL     string `json:"download_url"`
	RecordsExported int    `json:"records_exported"`
}

func NewInvoiceExporter(invoiceRepo repositories.InvoiceRepository, documents services.DocumentService, bucketName string) *InvoiceExporter {
	return &InvoiceExporter{
		invoiceRepo: invoiceRepo,
		documents:   documents,
		bucketName:  bucketName,
	}
}

// ExportInvoices writes the CSV to object storage and returns a presigned
// download link valid for 24 hours.
func (e *InvoiceExporter) ExportInvoices(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date cannot be before start date")
	}

	invoices, err := e.invoiceRepo.GetByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoices: %w", err)
	}

	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{"Invoice Number", "Customer ID", "Issue Date", "Due Date", "Subtotal", "Tax Amount", "Total Amount", "Status", "Source Subscription", "Cycle"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, invoice := range invoices {
		sourceID := ""
		if invoice.SourceSubscriptionID != nil {
			sourceID = invoice.SourceSubscriptionID.String()
		}
		cycle := ""
		if invoice.CycleSequence != nil {
			cycle = strconv.Itoa(*invoice.CycleSequence)
		}
		record := []string{
			invoice.InvoiceNumber,
			invoice.CustomerID.String(),
			invoice.IssueDate.Format("2006-01-02"),
			invoice.DueDate.Format("2006-01-02"),
			strconv.FormatFloat(invoice.Subtotal, 'f', 2, 64),
			strconv.FormatFloat(invoice.TaxAmount, 'f', 2, 64),
			strconv.FormatFloat(invoice.TotalAmount, 'f', 2, 64),
			invoice.Status,
			sourceID,
			cycle,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	fileName := fmt.Sprintf("invoices_%s_%s.csv", req.StartDate, req.EndDate)
	content := sb.String()

	if err := e.documents.EnsureBucketExists(ctx, e.bucketName); err != nil {
		return nil, fmt.Errorf("failed to ensure export bucket: %w", err)
	}
	if err := e.documents.UploadDocument(ctx, e.bucketName, fileName, "text/csv", strings.NewReader(content), int64(len(content))); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := e.documents.GetPresignedURL(ctx, e.bucketName, fileName, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to presign export URL: %w", err)
	}

	return &ExportResult{
		FileName:        fileName,
		DownloadURL:     url,
		RecordsExported: len(invoices),
	}, nil
}
