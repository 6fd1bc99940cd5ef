package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// memoryRepository mirrors the postgres repository: each WithinTx works on a copy
// that is only kept when the callback succeeds, and the single-default index is enforced.
type memoryRepository struct {
	mu      sync.Mutex
	methods map[uuid.UUID]PaymentMethod
	failOn  string
	commits int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{methods: make(map[uuid.UUID]PaymentMethod)}
}

var errInjected = errors.New("injected failure")

func (m *memoryRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedForList(m.methods, userID), nil
}

func sortedForList(methods map[uuid.UUID]PaymentMethod, userID uuid.UUID) []PaymentMethod {
	out := []PaymentMethod{}
	for _, pm := range methods {
		if pm.UserID == userID {
			out = append(out, pm)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memoryRepository) WithinTx(ctx context.Context, fn func(tx TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[uuid.UUID]PaymentMethod, len(m.methods))
	for id, pm := range m.methods {
		snapshot[id] = pm
	}
	tx := &memoryTx{methods: snapshot, failOn: m.failOn}
	if err := fn(tx); err != nil {
		return err
	}
	m.methods = snapshot
	m.commits++
	return nil
}

func (m *memoryRepository) get(id uuid.UUID) PaymentMethod {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.methods[id]
}

func (m *memoryRepository) defaults(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, pm := range m.methods {
		if pm.UserID == userID && pm.IsDefault {
			count++
		}
	}
	return count
}

func (m *memoryRepository) count(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(sortedForList(m.methods, userID))
}

type memoryTx struct {
	methods map[uuid.UUID]PaymentMethod
	failOn  string
}

func (t *memoryTx) fail(op string) error {
	if t.failOn == op {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (t *memoryTx) checkSingleDefault(userID uuid.UUID) error {
	count := 0
	for _, pm := range t.methods {
		if pm.UserID == userID && pm.IsDefault {
			count++
		}
	}
	if count > 1 {
		return errors.New("duplicate key value violates unique constraint \"payment_methods_single_default_idx\"")
	}
	return nil
}

func (t *memoryTx) FindByID(_ context.Context, id uuid.UUID) (*PaymentMethod, error) {
	if err := t.fail("FindByID"); err != nil {
		return nil, err
	}
	pm, ok := t.methods[id]
	if !ok {
		return nil, ErrPaymentMethodNotFound
	}
	return &pm, nil
}

func (t *memoryTx) HasDefault(_ context.Context, userID uuid.UUID) (bool, error) {
	for _, pm := range t.methods {
		if pm.UserID == userID && pm.IsDefault {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) ClearDefault(_ context.Context, userID uuid.UUID) error {
	if err := t.fail("ClearDefault"); err != nil {
		return err
	}
	for id, pm := range t.methods {
		if pm.UserID == userID && pm.IsDefault {
			pm.IsDefault = false
			t.methods[id] = pm
		}
	}
	return nil
}

func (t *memoryTx) SetDefault(_ context.Context, id uuid.UUID) error {
	if err := t.fail("SetDefault"); err != nil {
		return err
	}
	pm, ok := t.methods[id]
	if !ok {
		return ErrPaymentMethodNotFound
	}
	pm.IsDefault = true
	t.methods[id] = pm
	return t.checkSingleDefault(pm.UserID)
}

func (t *memoryTx) FindEarliestExcept(_ context.Context, userID, excludeID uuid.UUID) (*PaymentMethod, error) {
	var earliest *PaymentMethod
	for _, pm := range t.methods {
		if pm.UserID != userID || pm.ID == excludeID {
			continue
		}
		if earliest == nil || pm.CreatedAt.Before(earliest.CreatedAt) {
			candidate := pm
			earliest = &candidate
		}
	}
	if earliest == nil {
		return nil, ErrPaymentMethodNotFound
	}
	return earliest, nil
}

func (t *memoryTx) Insert(_ context.Context, pm *PaymentMethod) error {
	if err := t.fail("Insert"); err != nil {
		return err
	}
	t.methods[pm.ID] = *pm
	return t.checkSingleDefault(pm.UserID)
}

func (t *memoryTx) Update(_ context.Context, pm *PaymentMethod) error {
	if err := t.fail("Update"); err != nil {
		return err
	}
	if _, ok := t.methods[pm.ID]; !ok {
		return ErrPaymentMethodNotFound
	}
	t.methods[pm.ID] = *pm
	return t.checkSingleDefault(pm.UserID)
}

func (t *memoryTx) Delete(_ context.Context, id uuid.UUID) error {
	if err := t.fail("Delete"); err != nil {
		return err
	}
	delete(t.methods, id)
	return nil
}
