package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

// RepositoryError represents an error that occurred within a repository
type RepositoryError struct {
	// Op is the operation that failed
	Op string

	// Err is the underlying error
	Err error
}

// Error returns a string representation of the error
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// MemoryStore implements InvoiceRepository, CatalogRepository and
// UserRepository in process memory. It backs local runs without a database
// and the service tests. A single mutex serializes all writes, which makes
// the conversion claim and the conditional stock deduction atomic.
type MemoryStore struct {
	mutex sync.RWMutex

	invoices  map[string]*domain.Invoice
	items     map[string]*domain.CatalogItem
	movements map[string][]domain.StockMovement
	users     map[string]*domain.User
	profiles  map[string]*domain.BusinessProfile
	teams     map[string][]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:  make(map[string]*domain.Invoice),
		items:     make(map[string]*domain.CatalogItem),
		movements: make(map[string][]domain.StockMovement),
		users:     make(map[string]*domain.User),
		profiles:  make(map[string]*domain.BusinessProfile),
		teams:     make(map[string][]string),
	}
}

func checkContext(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return &RepositoryError{Op: op, Err: ctx.Err()}
	default:
		return nil
	}
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	c := *inv
	c.Lines = append([]domain.InvoiceLine(nil), inv.Lines...)
	c.PaymentHistory = append([]domain.PaymentEntry(nil), inv.PaymentHistory...)
	if inv.ConvertedFromProforma != nil {
		v := *inv.ConvertedFromProforma
		c.ConvertedFromProforma = &v
	}
	if inv.ConvertedTo != nil {
		v := *inv.ConvertedTo
		c.ConvertedTo = &v
	}
	return &c
}

func ownerSet(ownerIDs []string) map[string]bool {
	set := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		set[id] = true
	}
	return set
}

// CreateInvoice stores a new invoice
func (s *MemoryStore) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	if err := checkContext(ctx, "create_invoice"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if invoice.ID == "" {
		return &RepositoryError{Op: "create_invoice", Err: domain.NewValidationError("invoice id is required")}
	}
	if _, exists := s.invoices[invoice.ID]; exists {
		return &RepositoryError{Op: "create_invoice", Err: fmt.Errorf("%w: invoice %s already exists", domain.ErrConflict, invoice.ID)}
	}

	s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

// GetInvoiceByID retrieves an invoice by its ID
func (s *MemoryStore) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	if err := checkContext(ctx, "get_invoice"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, &RepositoryError{Op: "get_invoice", Err: domain.NewNotFoundError("invoice %s", invoiceID)}
	}
	return cloneInvoice(inv), nil
}

// UpdateInvoice replaces a stored invoice. The conversion links are owned
// by ConvertProforma and keep their stored values.
func (s *MemoryStore) UpdateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	if err := checkContext(ctx, "update_invoice"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored, ok := s.invoices[invoice.ID]
	if !ok {
		return &RepositoryError{Op: "update_invoice", Err: domain.NewNotFoundError("invoice %s", invoice.ID)}
	}

	updated := cloneInvoice(invoice)
	updated.ConvertedTo = stored.ConvertedTo
	updated.ConvertedFromProforma = stored.ConvertedFromProforma
	s.invoices[invoice.ID] = updated
	return nil
}

// DeleteInvoice deletes an invoice and clears references to it
func (s *MemoryStore) DeleteInvoice(ctx context.Context, invoiceID string) error {
	if err := checkContext(ctx, "delete_invoice"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.invoices[invoiceID]; !ok {
		return &RepositoryError{Op: "delete_invoice", Err: domain.NewNotFoundError("invoice %s", invoiceID)}
	}
	delete(s.invoices, invoiceID)

	// mirror ON DELETE SET NULL
	for _, inv := range s.invoices {
		if inv.ConvertedTo != nil && *inv.ConvertedTo == invoiceID {
			inv.ConvertedTo = nil
		}
		if inv.ConvertedFromProforma != nil && *inv.ConvertedFromProforma == invoiceID {
			inv.ConvertedFromProforma = nil
		}
	}
	return nil
}

func matchesFilter(inv *domain.Invoice, filter domain.InvoiceFilter) bool {
	if filter.DocumentType != "" && inv.DocumentType != filter.DocumentType {
		return false
	}
	if filter.Status != "" && !strings.EqualFold(string(inv.Status), string(filter.Status)) {
		return false
	}
	if filter.StartDate != nil && inv.InvoiceDate.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && inv.InvoiceDate.After(*filter.EndDate) {
		return false
	}
	return true
}

// ListInvoices lists invoices owned by ownerIDs, newest first
func (s *MemoryStore) ListInvoices(ctx context.Context, ownerIDs []string, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	if err := checkContext(ctx, "list_invoices"); err != nil {
		return nil, err
	}

	normalizePage(&filter)
	owners := ownerSet(ownerIDs)

	s.mutex.RLock()
	var matched []*domain.Invoice
	for _, inv := range s.invoices {
		if owners[inv.OwnerID] && matchesFilter(inv, filter) {
			matched = append(matched, cloneInvoice(inv))
		}
	}
	s.mutex.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	result := &domain.PaginatedInvoices{
		Data: []domain.Invoice{},
		Pagination: domain.Pagination{
			TotalItems:  len(matched),
			TotalPages:  totalPages(len(matched), filter.Limit),
			CurrentPage: filter.Page,
			Limit:       filter.Limit,
		},
	}

	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(matched) {
		return result, nil
	}
	end := min(offset+filter.Limit, len(matched))
	for _, inv := range matched[offset:end] {
		result.Data = append(result.Data, *inv)
	}
	return result, nil
}

// ConvertProforma stores the invoice and claims the proforma in one critical section
func (s *MemoryStore) ConvertProforma(ctx context.Context, proformaID string, invoice *domain.Invoice) error {
	if err := checkContext(ctx, "convert_proforma"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	proforma, ok := s.invoices[proformaID]
	if !ok {
		return &RepositoryError{Op: "convert_proforma", Err: domain.NewNotFoundError("invoice %s", proformaID)}
	}
	if proforma.ConvertedTo != nil {
		return &RepositoryError{Op: "convert_proforma", Err: domain.ErrConversionRace}
	}

	invoiceID := invoice.ID
	proforma.ConvertedTo = &invoiceID
	proforma.UpdatedAt = invoice.CreatedAt
	s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

// SummarizeInvoices aggregates formal invoices per status and currency
func (s *MemoryStore) SummarizeInvoices(ctx context.Context, ownerIDs []string) ([]domain.StatusSummary, error) {
	if err := checkContext(ctx, "summarize_invoices"); err != nil {
		return nil, err
	}

	type groupKey struct {
		status   domain.InvoiceStatus
		currency string
	}

	owners := ownerSet(ownerIDs)
	groups := make(map[groupKey]*domain.StatusSummary)

	s.mutex.RLock()
	for _, inv := range s.invoices {
		if !owners[inv.OwnerID] || inv.DocumentType != domain.DocumentTypeInvoice {
			continue
		}
		key := groupKey{inv.Status, inv.Currency}
		sum, ok := groups[key]
		if !ok {
			sum = &domain.StatusSummary{Status: inv.Status, Currency: inv.Currency}
			groups[key] = sum
		}
		sum.Count++
		sum.GrandTotal += inv.GrandTotal
		sum.AmountPaid += inv.AmountPaid
		sum.BalanceDue += inv.BalanceDue
	}
	s.mutex.RUnlock()

	summaries := make([]domain.StatusSummary, 0, len(groups))
	for _, sum := range groups {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Status == summaries[j].Status {
			return summaries[i].Currency < summaries[j].Currency
		}
		return summaries[i].Status < summaries[j].Status
	})
	return summaries, nil
}

// CreateCatalogItem stores a new catalog item
func (s *MemoryStore) CreateCatalogItem(ctx context.Context, item *domain.CatalogItem) error {
	if err := checkContext(ctx, "create_catalog_item"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item.ID == "" {
		return &RepositoryError{Op: "create_catalog_item", Err: domain.NewValidationError("catalog item id is required")}
	}
	c := *item
	s.items[item.ID] = &c
	return nil
}

// GetCatalogItem retrieves a catalog item by its ID
func (s *MemoryStore) GetCatalogItem(ctx context.Context, itemID string) (*domain.CatalogItem, error) {
	if err := checkContext(ctx, "get_catalog_item"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, &RepositoryError{Op: "get_catalog_item", Err: domain.NewNotFoundError("catalog item %s", itemID)}
	}
	c := *item
	return &c, nil
}

// ListCatalogItems lists catalog items owned by ownerIDs ordered by name
func (s *MemoryStore) ListCatalogItems(ctx context.Context, ownerIDs []string) ([]domain.CatalogItem, error) {
	if err := checkContext(ctx, "list_catalog_items"); err != nil {
		return nil, err
	}

	owners := ownerSet(ownerIDs)

	s.mutex.RLock()
	items := []domain.CatalogItem{}
	for _, item := range s.items {
		if owners[item.OwnerID] {
			items = append(items, *item)
		}
	}
	s.mutex.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// DeductStock conditionally lowers the stock and records the movement
func (s *MemoryStore) DeductStock(ctx context.Context, movement *domain.StockMovement) error {
	if err := checkContext(ctx, "deduct_stock"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	item, ok := s.items[movement.CatalogItemID]
	if !ok {
		return &RepositoryError{Op: "deduct_stock", Err: domain.NewNotFoundError("catalog item %s", movement.CatalogItemID)}
	}
	if !item.TrackStock || item.Stock < movement.Quantity {
		return &RepositoryError{Op: "deduct_stock", Err: domain.ErrInsufficientStock}
	}

	movement.OldStock = item.Stock
	movement.NewStock = item.Stock - movement.Quantity
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	item.Stock = movement.NewStock
	item.UpdatedAt = movement.CreatedAt
	s.movements[item.ID] = append(s.movements[item.ID], *movement)
	return nil
}

// ListStockMovements lists the movements of an item, newest first
func (s *MemoryStore) ListStockMovements(ctx context.Context, itemID string) ([]domain.StockMovement, error) {
	if err := checkContext(ctx, "list_stock_movements"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	src := s.movements[itemID]
	movements := make([]domain.StockMovement, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		movements = append(movements, src[i])
	}
	return movements, nil
}

// CreateUserWithPassword stores a user. Users with a TeamID join that team.
func (s *MemoryStore) CreateUserWithPassword(ctx context.Context, user *domain.User) error {
	if err := checkContext(ctx, "create_user"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return &RepositoryError{Op: "create_user", Err: fmt.Errorf("%w: email already registered", domain.ErrConflict)}
		}
	}

	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(s.users)+1)
	}
	user.CreatedAt, user.UpdatedAt = now, now

	c := *user
	s.users[user.ID] = &c
	if user.TeamID != "" {
		s.teams[user.TeamID] = append(s.teams[user.TeamID], user.ID)
	}
	return nil
}

// GetUserByID retrieves a user by their ID
func (s *MemoryStore) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if err := checkContext(ctx, "get_user"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, &RepositoryError{Op: "get_user", Err: domain.NewNotFoundError("user %s", userID)}
	}
	c := *user
	c.PasswordHash = ""
	return &c, nil
}

// GetUserByEmailWithPassword retrieves a user by email including the password hash
func (s *MemoryStore) GetUserByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	if err := checkContext(ctx, "get_user_by_email"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			c := *user
			return &c, nil
		}
	}
	return nil, &RepositoryError{Op: "get_user_by_email", Err: domain.NewNotFoundError("user %s", email)}
}

// GetTeamMemberIDs returns the member ids of the user's team
func (s *MemoryStore) GetTeamMemberIDs(ctx context.Context, userID string) ([]string, error) {
	if err := checkContext(ctx, "get_team_members"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, ok := s.users[userID]
	if !ok || user.TeamID == "" {
		return []string{userID}, nil
	}
	return append([]string(nil), s.teams[user.TeamID]...), nil
}

// GetBusinessProfile retrieves the business profile of a user
func (s *MemoryStore) GetBusinessProfile(ctx context.Context, userID string) (*domain.BusinessProfile, error) {
	if err := checkContext(ctx, "get_business_profile"); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, &RepositoryError{Op: "get_business_profile", Err: domain.NewNotFoundError("business profile of %s", userID)}
	}
	c := *profile
	return &c, nil
}

// UpsertBusinessProfile creates or replaces a business profile
func (s *MemoryStore) UpsertBusinessProfile(ctx context.Context, profile *domain.BusinessProfile) error {
	if err := checkContext(ctx, "upsert_business_profile"); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	c := *profile
	s.profiles[profile.UserID] = &c
	return nil
}
