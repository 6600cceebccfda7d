package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridwanfathin/invoicing-service/internal/database"
	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

const uniqueViolation = "23505"

const invoiceColumns = `
	id::text, user_id::text, invoice_number, document_type, invoice_date, due_date, currency,
	bill_from, bill_to, lines, notes, terms,
	discount_percent, discount_amount,
	subtotal, total_discount, total_nhil, total_getfund, total_vat, grand_total, amount_paid, balance_due,
	status, payment_history, converted_from_proforma::text, converted_to::text,
	created_at, updated_at`

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL.
// Lines, parties and payment history are stored as JSONB documents.
type PostgresInvoiceRepository struct {
	db *pgxpool.Pool
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository
func NewPostgresInvoiceRepository(db *pgxpool.Pool) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{db: db}
}

type invoiceDocuments struct {
	billFrom, billTo, lines, history []byte
}

func marshalDocuments(inv *domain.Invoice) (*invoiceDocuments, error) {
	var (
		docs invoiceDocuments
		err  error
	)
	if docs.billFrom, err = json.Marshal(inv.BillFrom); err != nil {
		return nil, fmt.Errorf("failed to marshal bill from: %w", err)
	}
	if docs.billTo, err = json.Marshal(inv.BillTo); err != nil {
		return nil, fmt.Errorf("failed to marshal bill to: %w", err)
	}
	lines := inv.Lines
	if lines == nil {
		lines = []domain.InvoiceLine{}
	}
	if docs.lines, err = json.Marshal(lines); err != nil {
		return nil, fmt.Errorf("failed to marshal lines: %w", err)
	}
	history := inv.PaymentHistory
	if history == nil {
		history = []domain.PaymentEntry{}
	}
	if docs.history, err = json.Marshal(history); err != nil {
		return nil, fmt.Errorf("failed to marshal payment history: %w", err)
	}
	return &docs, nil
}

func toPgDate(d domain.DateOnly) pgtype.Date {
	return pgtype.Date{Time: d.Time, Valid: !d.Time.IsZero()}
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv                 domain.Invoice
		invoiceDate         pgtype.Date
		dueDate             pgtype.Date
		billFrom, billTo    []byte
		lines, history      []byte
		docType, status     string
		convertedFrom, conv *string
	)

	err := row.Scan(
		&inv.ID, &inv.OwnerID, &inv.InvoiceNumber, &docType, &invoiceDate, &dueDate, &inv.Currency,
		&billFrom, &billTo, &lines, &inv.Notes, &inv.Terms,
		&inv.DiscountPercent, &inv.DiscountAmount,
		&inv.Subtotal, &inv.TotalDiscount, &inv.TotalNHIL, &inv.TotalGetFund, &inv.TotalVAT,
		&inv.GrandTotal, &inv.AmountPaid, &inv.BalanceDue,
		&status, &history, &convertedFrom, &conv,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.DocumentType = domain.DocumentType(docType)
	inv.Status = domain.InvoiceStatus(status)
	inv.ConvertedFromProforma = convertedFrom
	inv.ConvertedTo = conv
	if invoiceDate.Valid {
		inv.InvoiceDate = domain.DateOnly{Time: invoiceDate.Time}
	}
	if dueDate.Valid {
		inv.DueDate = domain.DateOnly{Time: dueDate.Time}
	}

	if err := json.Unmarshal(billFrom, &inv.BillFrom); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bill from: %w", err)
	}
	if err := json.Unmarshal(billTo, &inv.BillTo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bill to: %w", err)
	}
	if err := json.Unmarshal(lines, &inv.Lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lines: %w", err)
	}
	if err := json.Unmarshal(history, &inv.PaymentHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment history: %w", err)
	}

	return &inv, nil
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertInvoice(ctx context.Context, q querier, inv *domain.Invoice) error {
	docs, err := marshalDocuments(inv)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO invoices (
			id, user_id, invoice_number, document_type, invoice_date, due_date, currency,
			bill_from, bill_to, lines, notes, terms,
			discount_percent, discount_amount,
			subtotal, total_discount, total_nhil, total_getfund, total_vat, grand_total, amount_paid, balance_due,
			status, payment_history, converted_from_proforma, converted_to,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22,
			$23, $24, $25, $26,
			$27, $28
		)`,
		inv.ID, inv.OwnerID, inv.InvoiceNumber, string(inv.DocumentType), toPgDate(inv.InvoiceDate), toPgDate(inv.DueDate), inv.Currency,
		docs.billFrom, docs.billTo, docs.lines, inv.Notes, inv.Terms,
		inv.DiscountPercent, inv.DiscountAmount,
		inv.Subtotal, inv.TotalDiscount, inv.TotalNHIL, inv.TotalGetFund, inv.TotalVAT, inv.GrandTotal, inv.AmountPaid, inv.BalanceDue,
		string(inv.Status), docs.history, inv.ConvertedFromProforma, inv.ConvertedTo,
		inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

// CreateInvoice saves a new invoice to the database
func (r *PostgresInvoiceRepository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	if err := insertInvoice(ctx, r.db, invoice); err != nil {
		return &RepositoryError{Op: "create_invoice", Err: fmt.Errorf("failed to insert invoice: %w", err)}
	}
	return nil
}

// GetInvoiceByID retrieves an invoice by its ID
func (r *PostgresInvoiceRepository) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &RepositoryError{Op: "get_invoice", Err: domain.NewNotFoundError("invoice %s", invoiceID)}
		}
		return nil, &RepositoryError{Op: "get_invoice", Err: fmt.Errorf("failed to get invoice: %w", err)}
	}
	return inv, nil
}

// UpdateInvoice updates an existing invoice. The conversion columns are
// owned by ConvertProforma and are not written here.
func (r *PostgresInvoiceRepository) UpdateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	docs, err := marshalDocuments(invoice)
	if err != nil {
		return &RepositoryError{Op: "update_invoice", Err: err}
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET
			invoice_date = $2, due_date = $3, currency = $4,
			bill_from = $5, bill_to = $6, lines = $7, notes = $8, terms = $9,
			discount_percent = $10, discount_amount = $11,
			subtotal = $12, total_discount = $13, total_nhil = $14, total_getfund = $15, total_vat = $16,
			grand_total = $17, amount_paid = $18, balance_due = $19,
			status = $20, payment_history = $21, updated_at = $22
		WHERE id = $1`,
		invoice.ID, toPgDate(invoice.InvoiceDate), toPgDate(invoice.DueDate), invoice.Currency,
		docs.billFrom, docs.billTo, docs.lines, invoice.Notes, invoice.Terms,
		invoice.DiscountPercent, invoice.DiscountAmount,
		invoice.Subtotal, invoice.TotalDiscount, invoice.TotalNHIL, invoice.TotalGetFund, invoice.TotalVAT,
		invoice.GrandTotal, invoice.AmountPaid, invoice.BalanceDue,
		string(invoice.Status), docs.history, invoice.UpdatedAt,
	)
	if err != nil {
		return &RepositoryError{Op: "update_invoice", Err: fmt.Errorf("failed to update invoice: %w", err)}
	}
	if tag.RowsAffected() == 0 {
		return &RepositoryError{Op: "update_invoice", Err: domain.NewNotFoundError("invoice %s", invoice.ID)}
	}
	return nil
}

// DeleteInvoice deletes an invoice by its ID
func (r *PostgresInvoiceRepository) DeleteInvoice(ctx context.Context, invoiceID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, invoiceID)
	if err != nil {
		return &RepositoryError{Op: "delete_invoice", Err: fmt.Errorf("failed to delete invoice: %w", err)}
	}
	if tag.RowsAffected() == 0 {
		return &RepositoryError{Op: "delete_invoice", Err: domain.NewNotFoundError("invoice %s", invoiceID)}
	}
	return nil
}

// ListInvoices retrieves invoices with optional filters and pagination
func (r *PostgresInvoiceRepository) ListInvoices(ctx context.Context, ownerIDs []string, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	normalizePage(&filter)

	result := &domain.PaginatedInvoices{
		Data:       []domain.Invoice{},
		Pagination: domain.Pagination{Limit: filter.Limit, CurrentPage: filter.Page},
	}

	conditions := []string{"user_id = ANY($1::uuid[])"}
	args := []any{ownerIDs}
	argCount := 2

	if filter.DocumentType != "" {
		conditions = append(conditions, fmt.Sprintf("document_type = $%d", argCount))
		args = append(args, string(filter.DocumentType))
		argCount++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(status) = LOWER($%d)", argCount))
		args = append(args, string(filter.Status))
		argCount++
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_date >= $%d", argCount))
		args = append(args, *filter.StartDate)
		argCount++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_date <= $%d", argCount))
		args = append(args, *filter.EndDate)
		argCount++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var totalItems int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices `+whereClause, args...).Scan(&totalItems); err != nil {
		return nil, &RepositoryError{Op: "list_invoices", Err: fmt.Errorf("failed to count invoices: %w", err)}
	}

	result.Pagination.TotalItems = totalItems
	result.Pagination.TotalPages = totalPages(totalItems, filter.Limit)
	if totalItems == 0 {
		return result, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argCount, argCount+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, &RepositoryError{Op: "list_invoices", Err: fmt.Errorf("failed to query invoices: %w", err)}
	}
	defer rows.Close()

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, &RepositoryError{Op: "list_invoices", Err: fmt.Errorf("failed to scan invoice: %w", err)}
		}
		result.Data = append(result.Data, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, &RepositoryError{Op: "list_invoices", Err: fmt.Errorf("error iterating invoices: %w", err)}
	}

	return result, nil
}

// ConvertProforma inserts the invoice and claims the proforma in one
// transaction. The claim only matches while converted_to is still NULL; a
// concurrent conversion either loses that claim or trips the unique index on
// converted_from_proforma, and both roll the insert back.
func (r *PostgresInvoiceRepository) ConvertProforma(ctx context.Context, proformaID string, invoice *domain.Invoice) error {
	err := database.ExecuteTransaction(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertInvoice(ctx, tx, invoice); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE invoices
			SET converted_to = $2, updated_at = $3
			WHERE id = $1 AND converted_to IS NULL`,
			proformaID, invoice.ID, invoice.CreatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConversionRace
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		err = domain.ErrConversionRace
	}
	if errors.Is(err, domain.ErrConversionRace) {
		return &RepositoryError{Op: "convert_proforma", Err: err}
	}
	return &RepositoryError{Op: "convert_proforma", Err: fmt.Errorf("failed to convert proforma: %w", err)}
}

// SummarizeInvoices aggregates formal invoices per status and currency
func (r *PostgresInvoiceRepository) SummarizeInvoices(ctx context.Context, ownerIDs []string) ([]domain.StatusSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, currency, COUNT(*),
			COALESCE(SUM(grand_total), 0), COALESCE(SUM(amount_paid), 0), COALESCE(SUM(balance_due), 0)
		FROM invoices
		WHERE user_id = ANY($1::uuid[]) AND document_type = 'invoice'
		GROUP BY status, currency
		ORDER BY status, currency
	`, ownerIDs)
	if err != nil {
		return nil, &RepositoryError{Op: "summarize_invoices", Err: fmt.Errorf("failed to summarize invoices: %w", err)}
	}
	defer rows.Close()

	summaries := []domain.StatusSummary{}
	for rows.Next() {
		var (
			s      domain.StatusSummary
			status string
		)
		if err := rows.Scan(&status, &s.Currency, &s.Count, &s.GrandTotal, &s.AmountPaid, &s.BalanceDue); err != nil {
			return nil, &RepositoryError{Op: "summarize_invoices", Err: fmt.Errorf("failed to scan summary: %w", err)}
		}
		s.Status = domain.InvoiceStatus(status)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &RepositoryError{Op: "summarize_invoices", Err: fmt.Errorf("error iterating summary: %w", err)}
	}

	return summaries, nil
}

