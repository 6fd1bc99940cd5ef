package agent

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type assignment struct {
	agentID, customerID uuid.UUID
}

type memoryRepository struct {
	mu          sync.Mutex
	agents      map[uuid.UUID]Agent
	customers   map[uuid.UUID]AssignedCustomer
	assignments []assignment
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		agents:    make(map[uuid.UUID]Agent),
		customers: make(map[uuid.UUID]AssignedCustomer),
	}
}

func (m *memoryRepository) addCustomer(c AssignedCustomer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID] = c
}

func (m *memoryRepository) List(_ context.Context) ([]View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := make([]View, 0, len(m.agents))
	for _, a := range m.agents {
		view := a.View()
		view.Customers = []AssignedCustomer{}
		for _, as := range m.assignments {
			if as.agentID == a.ID {
				view.Customers = append(view.Customers, m.customers[as.customerID])
			}
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
	return views, nil
}

func (m *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return &a, nil
}

func (m *memoryRepository) GetByUsername(_ context.Context, username string) (*Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agents {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAgentNotFound
}

func (m *memoryRepository) Create(_ context.Context, agent *Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.agents {
		if a.Username == agent.Username {
			return ErrUsernameAlreadyExists
		}
	}
	m.agents[agent.ID] = *agent
	return nil
}

func (m *memoryRepository) Update(_ context.Context, agent *Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[agent.ID]; !ok {
		return ErrAgentNotFound
	}
	m.agents[agent.ID] = *agent
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[id]; !ok {
		return ErrAgentNotFound
	}
	delete(m.agents, id)
	kept := m.assignments[:0]
	for _, as := range m.assignments {
		if as.agentID != id {
			kept = append(kept, as)
		}
	}
	m.assignments = kept
	return nil
}

func (m *memoryRepository) Assign(_ context.Context, agentID, customerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[agentID]; !ok {
		return ErrAgentNotFound
	}
	if _, ok := m.customers[customerID]; !ok {
		return ErrCustomerNotFound
	}
	for _, as := range m.assignments {
		if as.agentID == agentID && as.customerID == customerID {
			return nil
		}
	}
	m.assignments = append(m.assignments, assignment{agentID: agentID, customerID: customerID})
	return nil
}

func (m *memoryRepository) Unassign(_ context.Context, agentID, customerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, as := range m.assignments {
		if as.agentID == agentID && as.customerID == customerID {
			m.assignments = append(m.assignments[:i], m.assignments[i+1:]...)
			return nil
		}
	}
	return ErrCustomerNotFound
}
