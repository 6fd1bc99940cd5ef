package biller

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu        sync.Mutex
	billers   map[uuid.UUID]Biller
	owners    map[uuid.UUID]Owner
	receipts  map[uuid.UUID][]RecentReceipt
	updateErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		billers:  make(map[uuid.UUID]Biller),
		owners:   make(map[uuid.UUID]Owner),
		receipts: make(map[uuid.UUID][]RecentReceipt),
	}
}

func (m *memoryRepository) addOwner(o Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[o.ID] = o
}

func (m *memoryRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]WithReceipts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []WithReceipts{}
	for _, b := range m.billers {
		if b.UserID != userID {
			continue
		}
		recent := append([]RecentReceipt{}, m.receipts[b.ID]...)
		sort.Slice(recent, func(i, j int) bool { return recent[i].PaidOn.After(recent[j].PaidOn) })
		if len(recent) > recentReceiptLimit {
			recent = recent[:recentReceiptLimit]
		}
		out = append(out, WithReceipts{Biller: b, Receipts: recent})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Biller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.billers[id]
	if !ok {
		return nil, ErrBillerNotFound
	}
	return &b, nil
}

func (m *memoryRepository) Create(_ context.Context, b *Biller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[b.UserID]; !ok {
		return ErrCustomerNotFound
	}
	m.billers[b.ID] = *b
	return nil
}

func (m *memoryRepository) Update(_ context.Context, b *Biller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.billers[b.ID]; !ok {
		return ErrBillerNotFound
	}
	m.billers[b.ID] = *b
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.billers[id]; !ok {
		return ErrBillerNotFound
	}
	delete(m.billers, id)
	delete(m.receipts, id)
	return nil
}

func (m *memoryRepository) ListWithOwners(_ context.Context, search string) ([]WithOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(search))
	out := []WithOwner{}
	for _, b := range m.billers {
		if term != "" && !strings.Contains(strings.ToLower(b.Name), term) && !strings.Contains(strings.ToLower(b.AccountID), term) {
			continue
		}
		out = append(out, WithOwner{
			ID:          b.ID,
			Name:        b.Name,
			Category:    b.Category,
			AccountID:   b.AccountID,
			ContactInfo: b.ContactInfo,
			User:        m.owners[b.UserID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
