// Package store implements the support-domain persistence layer: a JSON-file
// key/value store holding the product catalog, customers, orders, purchases,
// measurements, billing, delivery and alteration records plus the knowledge
// base. Semantics are read-after-write within a process with best-effort
// durability through file writes; every collection is a JSON object keyed by
// record ID.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Collection file names (without the .json extension).
const (
	colCatalog       = "catalog"
	colCustomers     = "customers"
	colOrders        = "orders"
	colPurchases     = "purchases"
	colMeasurements  = "measurements"
	colAlterations   = "alterations"
	colBilling       = "billing"
	colDelivery      = "delivery"
	colKnowledgeBase = "knowledge_base"
	colReturnPolicy  = "return_policy"
	colFAQ           = "faq"
)

// Store is the file-backed key/value store. All methods are safe for
// concurrent use within one process.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// Open initializes a store rooted at dir, creating the directory and seeding
// every missing collection with its default data.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	seeds := map[string]any{
		colCatalog:       defaultCatalog,
		colCustomers:     defaultCustomers,
		colOrders:        defaultOrders,
		colPurchases:     map[string]any{},
		colMeasurements:  map[string]any{},
		colAlterations:   map[string]any{},
		colBilling:       map[string]any{},
		colDelivery:      map[string]any{},
		colKnowledgeBase: defaultKnowledgeBase,
		colReturnPolicy:  defaultReturnPolicy,
		colFAQ:           defaultFAQ,
	}
	for name, seed := range seeds {
		path := s.path(name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := s.save(name, seed); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// load reads a collection. Missing or corrupt files yield an empty map.
func (s *Store) load(name string) map[string]any {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		return map[string]any{}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]any{}
	}
	return data
}

func (s *Store) save(name string, data any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// record narrows a collection entry to a map.
func record(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalog

// Catalog returns the full product catalog keyed by product ID.
func (s *Store) Catalog() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(colCatalog)
}

// Product returns one catalog entry.
func (s *Store) Product(productID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := record(s.load(colCatalog)[productID])
	if p == nil {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return p, nil
}

// SearchProducts filters the catalog by gender and/or category. Empty
// arguments match everything.
func (s *Store) SearchProducts(gender, category string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, v := range s.load(colCatalog) {
		p := record(v)
		if p == nil {
			continue
		}
		if gender != "" && !strings.EqualFold(str(p["gender"]), gender) {
			continue
		}
		if category != "" && !strings.EqualFold(str(p["category"]), category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ---------------------------------------------------------------------------
// Customers and orders

// Customers returns all customer records keyed by customer ID.
func (s *Store) Customers() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(colCustomers)
}

// Customer returns one customer record.
func (s *Store) Customer(customerID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := record(s.load(colCustomers)[customerID])
	if c == nil {
		return nil, fmt.Errorf("customer %s: %w", customerID, ErrNotFound)
	}
	return c, nil
}

// Order returns one order record.
func (s *Store) Order(orderID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := record(s.load(colOrders)[orderID])
	if o == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return o, nil
}

// CustomerOrders returns every order belonging to a customer.
func (s *Store) CustomerOrders(customerID string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, v := range s.load(colOrders) {
		if o := record(v); o != nil && str(o["customer_id"]) == customerID {
			out = append(out, o)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Knowledge base, return policy, FAQ

// SearchKnowledgeBase returns every KB article whose issue matches a query
// term.
func (s *Store) SearchKnowledgeBase(query string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	terms := strings.Fields(strings.ToLower(query))
	var out []map[string]any
	for _, v := range s.load(colKnowledgeBase) {
		entry := record(v)
		if entry == nil {
			continue
		}
		issue := strings.ToLower(str(entry["issue"]))
		for _, term := range terms {
			if strings.Contains(issue, term) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// ReturnPolicy returns the store return policy document.
func (s *Store) ReturnPolicy() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(colReturnPolicy)
}

// SearchFAQ returns every FAQ entry whose question or answer matches a query
// term.
func (s *Store) SearchFAQ(query string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	terms := strings.Fields(strings.ToLower(query))
	var out []map[string]any
	for _, v := range s.load(colFAQ) {
		entries, ok := v.([]any)
		if !ok {
			continue
		}
		for _, e := range entries {
			entry := record(e)
			if entry == nil {
				continue
			}
			text := strings.ToLower(str(entry["question"]) + " " + str(entry["answer"]))
			for _, term := range terms {
				if strings.Contains(text, term) {
					out = append(out, entry)
					break
				}
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Purchases

// CreatePurchase records a new purchase and returns its generated ID. Extra
// fields (subtotal, tax, total, discount) are merged into the record.
func (s *Store) CreatePurchase(customerID string, items []map[string]any, extra map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purchases := s.load(colPurchases)
	purchaseID := "PURCH-" + shortID()
	data := map[string]any{
		"purchase_id":           purchaseID,
		"customer_id":           customerID,
		"items":                 items,
		"status":                "initiated",
		"created_at":            s.now().Format(time.RFC3339),
		"measurements_complete": false,
		"billing_complete":      false,
		"delivery_scheduled":    false,
	}
	for k, v := range extra {
		data[k] = v
	}
	purchases[purchaseID] = data
	if err := s.save(colPurchases, purchases); err != nil {
		return "", err
	}
	return purchaseID, nil
}

// Purchase returns one purchase record.
func (s *Store) Purchase(purchaseID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := record(s.load(colPurchases)[purchaseID])
	if p == nil {
		return nil, fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
	}
	return p, nil
}

// UpdatePurchase merges updates into an existing purchase.
func (s *Store) UpdatePurchase(purchaseID string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	purchases := s.load(colPurchases)
	p := record(purchases[purchaseID])
	if p == nil {
		return fmt.Errorf("purchase %s: %w", purchaseID, ErrNotFound)
	}
	for k, v := range updates {
		p[k] = v
	}
	purchases[purchaseID] = p
	return s.save(colPurchases, purchases)
}

// ---------------------------------------------------------------------------
// Measurements

// SaveMeasurements stores a customer's measurements for a gender profile.
func (s *Store) SaveMeasurements(customerID, gender string, measurements map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load(colMeasurements)
	all[customerID+"_"+gender] = map[string]any{
		"customer_id":  customerID,
		"gender":       gender,
		"measurements": measurements,
		"recorded_at":  s.now().Format(time.RFC3339),
	}
	return s.save(colMeasurements, all)
}

// CustomerMeasurements returns previously stored measurements, or ErrNotFound.
func (s *Store) CustomerMeasurements(customerID, gender string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := record(s.load(colMeasurements)[customerID+"_"+gender])
	if m == nil {
		return nil, fmt.Errorf("measurements for %s (%s): %w", customerID, gender, ErrNotFound)
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Billing, delivery, alterations

// SaveBilling stores the billing record for a purchase.
func (s *Store) SaveBilling(purchaseID string, billing map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load(colBilling)
	all[purchaseID] = map[string]any{
		"purchase_id":  purchaseID,
		"billing_data": billing,
		"processed_at": s.now().Format(time.RFC3339),
	}
	return s.save(colBilling, all)
}

// ScheduleDelivery books a delivery for a purchase and returns the schedule
// record including generated tracking number and scheduled date.
func (s *Store) ScheduleDelivery(purchaseID, option string, address map[string]any) (map[string]any, error) {
	opt, ok := DeliveryOptions[option]
	if !ok {
		return nil, fmt.Errorf("unknown delivery option %q", option)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load(colDelivery)
	schedule := map[string]any{
		"purchase_id":     purchaseID,
		"delivery_option": option,
		"address":         address,
		"scheduled_date":  s.now().AddDate(0, 0, opt.Days).Format("2006-01-02"),
		"tracking_number": "TRK-" + shortID(),
		"status":          "scheduled",
		"delivery_cost":   opt.Cost,
	}
	all[purchaseID] = schedule
	if err := s.save(colDelivery, all); err != nil {
		return nil, err
	}
	return schedule, nil
}

// DeliverySchedule returns the delivery record for a purchase.
func (s *Store) DeliverySchedule(purchaseID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := record(s.load(colDelivery)[purchaseID])
	if d == nil {
		return nil, fmt.Errorf("delivery for %s: %w", purchaseID, ErrNotFound)
	}
	return d, nil
}

// CreateAlterationRequest records a pending alteration request and returns
// its generated ID.
func (s *Store) CreateAlterationRequest(purchaseID, itemID string, alterations []map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load(colAlterations)
	alterationID := "ALT-" + shortID()
	all[alterationID] = map[string]any{
		"alteration_id": alterationID,
		"purchase_id":   purchaseID,
		"item_id":       itemID,
		"alterations":   alterations,
		"status":        "pending",
		"created_at":    s.now().Format(time.RFC3339),
	}
	if err := s.save(colAlterations, all); err != nil {
		return "", err
	}
	return alterationID, nil
}

// Alteration returns one alteration request.
func (s *Store) Alteration(alterationID string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := record(s.load(colAlterations)[alterationID])
	if a == nil {
		return nil, fmt.Errorf("alteration %s: %w", alterationID, ErrNotFound)
	}
	return a, nil
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
