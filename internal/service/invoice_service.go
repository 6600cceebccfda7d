package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/invoicing"
	"github.com/ridwanfathin/invoicing-service/internal/logger"
	"github.com/ridwanfathin/invoicing-service/internal/money"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
)

// InvoiceServiceError represents an error in the invoice service
type InvoiceServiceError struct {
	Op  string
	Err error
}

func (e *InvoiceServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error so callers can match domain errors
func (e *InvoiceServiceError) Unwrap() error {
	return e.Err
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID string
	Role   domain.Role
}

// InvoiceCreatedHook runs after a new invoice has been stored. Hooks cannot
// fail the create: they receive a context that is not cancelled with the
// request and must handle their own errors.
type InvoiceCreatedHook interface {
	AfterInvoiceCreated(ctx context.Context, event domain.InvoiceCreatedEvent)
}

// RateProvider returns the multiplier converting one currency into another
type RateProvider interface {
	Rate(ctx context.Context, fromCurrency, toCurrency string) (float64, error)
}

// CreateInvoiceInput carries a new invoice or proforma
type CreateInvoiceInput struct {
	DocumentType  string
	InvoiceNumber string
	InvoiceDate   domain.DateOnly
	DueDate       domain.DateOnly
	Currency      string
	BillFrom      domain.Party
	BillTo        domain.Party
	Items         []invoicing.LineInput
	Notes         string
	Terms         string

	DiscountPercent domain.Number
	DiscountAmount  domain.Number
	AmountPaid      domain.Number
	Status          string
	PaymentNote     string
}

// UpdateInvoiceInput is a partial update; nil fields are left unchanged.
// A nil Items keeps the stored lines and totals; an empty non-nil Items is
// rejected.
type UpdateInvoiceInput struct {
	InvoiceDate *domain.DateOnly
	DueDate     *domain.DateOnly
	Currency    *string
	BillFrom    *domain.Party
	BillTo      *domain.Party
	Items       []invoicing.LineInput
	Notes       *string
	Terms       *string

	DiscountPercent domain.Number
	DiscountAmount  domain.Number
	GrandTotal      domain.Number
	AmountPaid      domain.Number
	Status          *string
	PaymentNote     string
}

// CreateInvoiceResult is a stored (or quoted) invoice with the coercion
// warnings raised while normalizing its lines
type CreateInvoiceResult struct {
	Invoice  *domain.Invoice             `json:"invoice"`
	Warnings []invoicing.CoercionWarning `json:"warnings,omitempty"`
}

// InvoiceService defines the interface for invoice business logic
type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor Actor, input CreateInvoiceInput) (*CreateInvoiceResult, error)
	QuoteInvoice(ctx context.Context, actor Actor, input CreateInvoiceInput) (*CreateInvoiceResult, error)
	GetInvoice(ctx context.Context, actor Actor, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, actor Actor, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)
	UpdateInvoice(ctx context.Context, actor Actor, invoiceID string, input UpdateInvoiceInput) (*domain.Invoice, error)
	ConvertProformaToInvoice(ctx context.Context, actor Actor, proformaID string) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, actor Actor, invoiceID string) error
	GetReceivablesSummary(ctx context.Context, actor Actor, currency string) (*domain.ReceivablesSummary, error)
}

// InvoiceServiceConfig holds the collaborators of the invoice service
type InvoiceServiceConfig struct {
	Invoices repository.InvoiceRepository
	Users    repository.UserRepository
	// Rates converts summaries into another currency; optional
	Rates           RateProvider
	DefaultCurrency string
	Hooks           []InvoiceCreatedHook
}

type invoiceService struct {
	invoices        repository.InvoiceRepository
	users           repository.UserRepository
	rates           RateProvider
	defaultCurrency string
	hooks           []InvoiceCreatedHook
	logger          zerolog.Logger
	now             func() time.Time
	newID           func() string
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(config InvoiceServiceConfig) InvoiceService {
	currency := strings.ToUpper(config.DefaultCurrency)
	if currency == "" {
		currency = "GHS"
	}

	return &invoiceService{
		invoices:        config.Invoices,
		users:           config.Users,
		rates:           config.Rates,
		defaultCurrency: currency,
		hooks:           config.Hooks,
		logger:          logger.WithComponent("invoice"),
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

func serviceError(op string, err error) error {
	return &InvoiceServiceError{Op: op, Err: err}
}

func requireActor(actor Actor) error {
	if actor.UserID == "" {
		return fmt.Errorf("%w: missing caller identity", domain.ErrUnauthorized)
	}
	return nil
}

func requireManager(actor Actor) error {
	if !actor.Role.CanManageInvoices() {
		return fmt.Errorf("%w: only owners and admins can modify invoices", domain.ErrForbidden)
	}
	return nil
}

// tenantIDs resolves the ids whose invoices the actor may see
func (s *invoiceService) tenantIDs(ctx context.Context, actor Actor) ([]string, error) {
	ids, err := s.users.GetTeamMemberIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ids, actor.UserID) {
		ids = append(ids, actor.UserID)
	}
	return ids, nil
}

// loadOwned fetches an invoice and checks that it belongs to the actor's team
func (s *invoiceService) loadOwned(ctx context.Context, actor Actor, invoiceID string) (*domain.Invoice, error) {
	inv, err := s.invoices.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	ids, err := s.tenantIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ids, inv.OwnerID) {
		return nil, fmt.Errorf("%w: invoice belongs to another team", domain.ErrForbidden)
	}
	return inv, nil
}

func parseDocumentType(s string) (domain.DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(domain.DocumentTypeInvoice):
		return domain.DocumentTypeInvoice, nil
	case string(domain.DocumentTypeProforma):
		return domain.DocumentTypeProforma, nil
	}
	return "", domain.NewValidationError("unknown document type %q", s)
}

func parseAmountPaid(n domain.Number) (float64, error) {
	if n.Set && !n.Valid {
		return 0, domain.NewValidationError("amountPaid must be a number")
	}
	if n.Value < 0 {
		return 0, domain.NewValidationError("amountPaid cannot be negative")
	}
	return n.OrZero(), nil
}

func parseCurrency(s, fallback string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return fallback, nil
	}
	if len(code) != 3 {
		return "", domain.NewValidationError("currency must be a 3-letter code, got %q", s)
	}
	return code, nil
}

// buildInvoice runs normalization, aggregation and create-path
// reconciliation. The result has no ID and is not stored.
func (s *invoiceService) buildInvoice(actor Actor, input CreateInvoiceInput, now time.Time) (*domain.Invoice, []invoicing.CoercionWarning, error) {
	if len(input.Items) == 0 {
		return nil, nil, domain.NewValidationError("invoice must have at least one item")
	}

	docType, err := parseDocumentType(input.DocumentType)
	if err != nil {
		return nil, nil, err
	}
	amountPaid, err := parseAmountPaid(input.AmountPaid)
	if err != nil {
		return nil, nil, err
	}
	currency, err := parseCurrency(input.Currency, s.defaultCurrency)
	if err != nil {
		return nil, nil, err
	}

	normalized := invoicing.NormalizeLines(input.Items)
	totals := invoicing.ComputeTotalsFromInclusivePricing(normalized, invoicing.Discount{
		Percent: input.DiscountPercent.OrZero(),
		Amount:  input.DiscountAmount.OrZero(),
	})
	reconciled := invoicing.ReconcileOnCreate(invoicing.PaymentChange{
		GrandTotal:      totals.GrandTotal,
		AmountPaid:      amountPaid,
		RequestedStatus: input.Status,
		Note:            input.PaymentNote,
		RecordedBy:      actor.UserID,
		At:              now,
	})

	number := strings.TrimSpace(input.InvoiceNumber)
	if number == "" {
		number = invoicing.GenerateInvoiceNumber(docType, now)
	}

	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		y, m, d := now.UTC().Date()
		invoiceDate = domain.DateOnly{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	}

	inv := &domain.Invoice{
		OwnerID:       actor.UserID,
		InvoiceNumber: number,
		DocumentType:  docType,
		InvoiceDate:   invoiceDate,
		DueDate:       input.DueDate,
		Currency:      currency,

		BillFrom: input.BillFrom,
		BillTo:   input.BillTo,
		Lines:    normalized.Lines,
		Notes:    input.Notes,
		Terms:    input.Terms,

		DiscountPercent: input.DiscountPercent.OrZero(),
		DiscountAmount:  input.DiscountAmount.OrZero(),

		Subtotal:      totals.Subtotal,
		TotalDiscount: totals.TotalDiscount,
		TotalNHIL:     totals.TotalNHIL,
		TotalGetFund:  totals.TotalGetFund,
		TotalVAT:      totals.TotalVAT,
		GrandTotal:    totals.GrandTotal,
		AmountPaid:    amountPaid,
		BalanceDue:    reconciled.BalanceDue,

		Status:         reconciled.Status,
		PaymentHistory: []domain.PaymentEntry{},

		CreatedAt: now,
		UpdatedAt: now,
	}
	if reconciled.Entry != nil {
		inv.AppendPayment(*reconciled.Entry)
	}

	return inv, normalized.Warnings, nil
}

// CreateInvoice stores a new invoice or proforma and runs the post-commit hooks
func (s *invoiceService) CreateInvoice(ctx context.Context, actor Actor, input CreateInvoiceInput) (*CreateInvoiceResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("create_invoice", err)
	}

	inv, warnings, err := s.buildInvoice(actor, input, s.now())
	if err != nil {
		return nil, serviceError("create_invoice", err)
	}
	inv.ID = s.newID()

	tenantIDs, err := s.tenantIDs(ctx, actor)
	if err != nil {
		return nil, serviceError("resolve_team", err)
	}

	if err := s.invoices.CreateInvoice(ctx, inv); err != nil {
		return nil, serviceError("create_invoice", err)
	}

	log := s.logger.With().Str("invoice_id", inv.ID).Str("invoice_number", inv.InvoiceNumber).Logger()
	for _, w := range warnings {
		log.Warn().Int("line", w.Line).Str("field", w.Field).Msg(w.Message)
	}
	log.Info().
		Str("type", string(inv.DocumentType)).
		Float64("grand_total", inv.GrandTotal).
		Str("status", string(inv.Status)).
		Msg("Invoice created")

	s.runCreatedHooks(ctx, domain.InvoiceCreatedEvent{
		Invoice:   inv,
		ActorID:   actor.UserID,
		TenantIDs: tenantIDs,
	})

	return &CreateInvoiceResult{Invoice: inv, Warnings: warnings}, nil
}

func (s *invoiceService) runCreatedHooks(ctx context.Context, event domain.InvoiceCreatedEvent) {
	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range s.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().
						Str("invoice_id", event.Invoice.ID).
						Interface("panic", r).
						Msg("Invoice created hook panicked")
				}
			}()
			hook.AfterInvoiceCreated(hookCtx, event)
		}()
	}
}

// QuoteInvoice computes the totals of a would-be invoice without storing it
func (s *invoiceService) QuoteInvoice(ctx context.Context, actor Actor, input CreateInvoiceInput) (*CreateInvoiceResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("quote_invoice", err)
	}

	inv, warnings, err := s.buildInvoice(actor, input, s.now())
	if err != nil {
		return nil, serviceError("quote_invoice", err)
	}
	return &CreateInvoiceResult{Invoice: inv, Warnings: warnings}, nil
}

// GetInvoice returns an invoice visible to the actor's team
func (s *invoiceService) GetInvoice(ctx context.Context, actor Actor, invoiceID string) (*domain.Invoice, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("get_invoice", err)
	}

	inv, err := s.loadOwned(ctx, actor, invoiceID)
	if err != nil {
		return nil, serviceError("get_invoice", err)
	}
	return inv, nil
}

// ListInvoices lists the invoices of the actor's team
func (s *invoiceService) ListInvoices(ctx context.Context, actor Actor, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("list_invoices", err)
	}

	ids, err := s.tenantIDs(ctx, actor)
	if err != nil {
		return nil, serviceError("resolve_team", err)
	}

	if filter.Status != "" {
		status, ok := invoicing.NormalizeStatus(string(filter.Status))
		if !ok {
			return nil, serviceError("list_invoices", domain.NewValidationError("unknown status %q", filter.Status))
		}
		filter.Status = status
	}

	result, err := s.invoices.ListInvoices(ctx, ids, filter)
	if err != nil {
		return nil, serviceError("list_invoices", err)
	}
	return result, nil
}

// UpdateInvoice applies a partial update. Totals are only recomputed when
// items are resubmitted, and then from the client's own per-line breakdown.
// Payment state is reconciled on every update.
func (s *invoiceService) UpdateInvoice(ctx context.Context, actor Actor, invoiceID string, input UpdateInvoiceInput) (*domain.Invoice, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("update_invoice", err)
	}
	if err := requireManager(actor); err != nil {
		return nil, serviceError("update_invoice", err)
	}

	inv, err := s.loadOwned(ctx, actor, invoiceID)
	if err != nil {
		return nil, serviceError("update_invoice", err)
	}

	if err := s.applyUpdate(ctx, actor, inv, input); err != nil {
		return nil, serviceError("update_invoice", err)
	}

	if err := s.invoices.UpdateInvoice(ctx, inv); err != nil {
		return nil, serviceError("update_invoice", err)
	}

	s.logger.Info().
		Str("invoice_id", inv.ID).
		Float64("grand_total", inv.GrandTotal).
		Float64("balance_due", inv.BalanceDue).
		Str("status", string(inv.Status)).
		Msg("Invoice updated")

	return inv, nil
}

func (s *invoiceService) applyUpdate(ctx context.Context, actor Actor, inv *domain.Invoice, input UpdateInvoiceInput) error {
	now := s.now()

	// validate everything before touching the document
	if input.Items != nil && len(input.Items) == 0 {
		return domain.NewValidationError("invoice must have at least one item")
	}
	previousPaid := inv.AmountPaid
	amountPaid := previousPaid
	if input.AmountPaid.Set {
		paid, err := parseAmountPaid(input.AmountPaid)
		if err != nil {
			return err
		}
		amountPaid = paid
	}
	if input.Currency != nil {
		currency, err := parseCurrency(*input.Currency, inv.Currency)
		if err != nil {
			return err
		}
		inv.Currency = currency
	}

	if input.Items != nil {
		lines := invoicing.ClientBreakdownLines(input.Items)
		totals, err := invoicing.ComputeTotalsFromClientSuppliedBreakdown(lines)
		if err != nil {
			return err
		}
		inv.Lines = lines
		inv.Subtotal = totals.Subtotal
		// the client breakdown is already net of any discount
		inv.TotalDiscount = 0
		inv.TotalNHIL = totals.TotalNHIL
		inv.TotalGetFund = totals.TotalGetFund
		inv.TotalVAT = totals.TotalVAT
		inv.GrandTotal = totals.GrandTotal
	} else {
		inv.GrandTotal = invoicing.ApplyGrandTotalOverride(inv.GrandTotal, input.GrandTotal)
	}

	if input.DiscountPercent.Valid {
		inv.DiscountPercent = input.DiscountPercent.Value
	}
	if input.DiscountAmount.Valid {
		inv.DiscountAmount = input.DiscountAmount.Value
	}
	if input.InvoiceDate != nil {
		inv.InvoiceDate = *input.InvoiceDate
	}
	if input.DueDate != nil {
		inv.DueDate = *input.DueDate
	}
	if input.BillTo != nil {
		inv.BillTo = *input.BillTo
	}
	if input.BillFrom != nil {
		inv.BillFrom = *input.BillFrom
	}
	if input.Notes != nil {
		inv.Notes = *input.Notes
	}
	if input.Terms != nil {
		inv.Terms = *input.Terms
	}

	if err := s.fillBillFromDefaults(ctx, inv); err != nil {
		return err
	}

	var requested string
	if input.Status != nil {
		requested = *input.Status
	}
	reconciled := invoicing.ReconcileOnUpdate(invoicing.PaymentChange{
		GrandTotal:         inv.GrandTotal,
		PreviousAmountPaid: previousPaid,
		AmountPaid:         amountPaid,
		RequestedStatus:    requested,
		Note:               input.PaymentNote,
		RecordedBy:         actor.UserID,
		At:                 now,
	})

	inv.AmountPaid = amountPaid
	inv.BalanceDue = reconciled.BalanceDue
	inv.Status = reconciled.Status
	if reconciled.Entry != nil {
		inv.AppendPayment(*reconciled.Entry)
	}
	inv.UpdatedAt = now
	return nil
}

// fillBillFromDefaults copies the owner's business profile into empty
// bill-from fields
func (s *invoiceService) fillBillFromDefaults(ctx context.Context, inv *domain.Invoice) error {
	profile, err := s.users.GetBusinessProfile(ctx, inv.OwnerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	defaults := profile.AsParty()
	from := &inv.BillFrom
	if from.Name == "" {
		from.Name = defaults.Name
	}
	if from.Email == "" {
		from.Email = defaults.Email
	}
	if from.Phone == "" {
		from.Phone = defaults.Phone
	}
	if from.Address == "" {
		from.Address = defaults.Address
	}
	if from.TaxID == "" {
		from.TaxID = defaults.TaxID
	}
	return nil
}

// ConvertProformaToInvoice turns a fully paid proforma into a formal invoice
// exactly once. The precondition check is repeated atomically by the store,
// so a concurrent conversion fails with domain.ErrConversionRace.
func (s *invoiceService) ConvertProformaToInvoice(ctx context.Context, actor Actor, proformaID string) (*domain.Invoice, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("convert_proforma", err)
	}

	proforma, err := s.loadOwned(ctx, actor, proformaID)
	if err != nil {
		return nil, serviceError("convert_proforma", err)
	}
	if err := invoicing.CheckConvertible(proforma, actor.Role); err != nil {
		return nil, serviceError("convert_proforma", err)
	}

	inv := invoicing.CloneAsInvoice(proforma, s.newID(), s.now())
	if err := s.invoices.ConvertProforma(ctx, proforma.ID, inv); err != nil {
		if errors.Is(err, domain.ErrConversionRace) {
			s.logger.Warn().Str("proforma_id", proforma.ID).Msg("Concurrent proforma conversion rejected")
		}
		return nil, serviceError("convert_proforma", err)
	}

	s.logger.Info().
		Str("proforma_id", proforma.ID).
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Msg("Proforma converted to invoice")

	return inv, nil
}

// DeleteInvoice deletes an invoice of the actor's team
func (s *invoiceService) DeleteInvoice(ctx context.Context, actor Actor, invoiceID string) error {
	if err := requireActor(actor); err != nil {
		return serviceError("delete_invoice", err)
	}
	if err := requireManager(actor); err != nil {
		return serviceError("delete_invoice", err)
	}

	if _, err := s.loadOwned(ctx, actor, invoiceID); err != nil {
		return serviceError("delete_invoice", err)
	}
	if err := s.invoices.DeleteInvoice(ctx, invoiceID); err != nil {
		return serviceError("delete_invoice", err)
	}

	s.logger.Info().Str("invoice_id", invoiceID).Msg("Invoice deleted")
	return nil
}

// GetReceivablesSummary sums the team's formal invoices per status in the
// requested currency, or the default currency when none is given
func (s *invoiceService) GetReceivablesSummary(ctx context.Context, actor Actor, currency string) (*domain.ReceivablesSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, serviceError("receivables_summary", err)
	}
	target, err := parseCurrency(currency, s.defaultCurrency)
	if err != nil {
		return nil, serviceError("receivables_summary", err)
	}

	ids, err := s.tenantIDs(ctx, actor)
	if err != nil {
		return nil, serviceError("resolve_team", err)
	}

	groups, err := s.invoices.SummarizeInvoices(ctx, ids)
	if err != nil {
		return nil, serviceError("receivables_summary", err)
	}

	summary := &domain.ReceivablesSummary{Currency: target, ByStatus: []domain.StatusSummary{}}
	byStatus := make(map[domain.InvoiceStatus]int)
	rates := make(map[string]float64)

	for _, g := range groups {
		from := strings.ToUpper(g.Currency)
		if from == "" {
			from = s.defaultCurrency
		}

		rate, ok := rates[from]
		if !ok {
			rate, err = s.rate(ctx, from, target)
			if err != nil {
				return nil, serviceError("convert_currency", err)
			}
			rates[from] = rate
		}

		idx, seen := byStatus[g.Status]
		if !seen {
			idx = len(summary.ByStatus)
			byStatus[g.Status] = idx
			summary.ByStatus = append(summary.ByStatus, domain.StatusSummary{Status: g.Status, Currency: target})
		}
		row := &summary.ByStatus[idx]
		row.Count += g.Count
		row.GrandTotal += g.GrandTotal * rate
		row.AmountPaid += g.AmountPaid * rate
		row.BalanceDue += g.BalanceDue * rate
	}

	for i := range summary.ByStatus {
		row := &summary.ByStatus[i]
		row.GrandTotal = money.Round(row.GrandTotal)
		row.AmountPaid = money.Round(row.AmountPaid)
		row.BalanceDue = money.Round(row.BalanceDue)

		summary.InvoiceCount += row.Count
		summary.TotalInvoiced += row.GrandTotal
		summary.TotalPaid += row.AmountPaid
		summary.TotalOutstanding += row.BalanceDue
	}
	summary.TotalInvoiced = money.Round(summary.TotalInvoiced)
	summary.TotalPaid = money.Round(summary.TotalPaid)
	summary.TotalOutstanding = money.Round(summary.TotalOutstanding)

	return summary, nil
}

func (s *invoiceService) rate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	if s.rates == nil {
		return 0, fmt.Errorf("no exchange rate source configured for %s to %s", from, to)
	}
	return s.rates.Rate(ctx, from, to)
}
