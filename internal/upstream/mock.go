package upstream

import (
	"context"
	"sync"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// MutationCall records one mutation for assertion in tests.
type MutationCall struct {
	Op      string // "approve-consumption", "publish-ruleset", ...
	ID      int64
	Account string
	Status  string
}

// MockClient is a hand-written, in-memory implementation of Client used
// in unit tests. No mock-generation library needed.
type MockClient struct {
	mu          sync.Mutex
	Collections map[string][]domain.Record
	Details     map[string]domain.Record // keyed "{partition}/{id-or-account}"
	Calls       []MutationCall

	// Optional error overrides — set in tests to simulate failure paths.
	FetchErr    map[string]error
	MutationErr error
	DetailErr   error
}

func NewMockClient() *MockClient {
	return &MockClient{
		Collections: make(map[string][]domain.Record),
		Details:     make(map[string]domain.Record),
		FetchErr:    make(map[string]error),
	}
}

func (m *MockClient) FetchCollection(_ context.Context, partition string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FetchErr[partition]; err != nil {
		return nil, err
	}
	records := m.Collections[partition]
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out, nil
}

// SetCollection replaces a partition's records.
func (m *MockClient) SetCollection(partition string, records []domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Collections[partition] = records
}

// CallOps returns the mutation operations issued so far, in order.
func (m *MockClient) CallOps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		ops[i] = c.Op
	}
	return ops
}

func (m *MockClient) record(call MutationCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MutationErr != nil {
		return m.MutationErr
	}
	m.Calls = append(m.Calls, call)
	return nil
}

func (m *MockClient) detail(key string) (domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DetailErr != nil {
		return nil, m.DetailErr
	}
	rec, ok := m.Details[key]
	if !ok {
		return nil, &Error{StatusCode: 404, Message: "not found"}
	}
	return rec.Clone(), nil
}

func (m *MockClient) GetConsumption(_ context.Context, id int64) (domain.Record, error) {
	return m.detail(key(PartitionConsumption, id))
}

func (m *MockClient) ApproveConsumption(_ context.Context, id int64, _, _ string) error {
	return m.record(MutationCall{Op: "approve-consumption", ID: id})
}

func (m *MockClient) RejectConsumption(_ context.Context, id int64, _, _ string) error {
	return m.record(MutationCall{Op: "reject-consumption", ID: id})
}

func (m *MockClient) GetRuleset(_ context.Context, id int64) (domain.Record, error) {
	return m.detail(key(PartitionZoneScoring, id))
}

func (m *MockClient) PublishRuleset(_ context.Context, id int64) error {
	return m.record(MutationCall{Op: "publish-ruleset", ID: id})
}

func (m *MockClient) UpdateRulesetStatus(_ context.Context, id int64, status string) error {
	return m.record(MutationCall{Op: "update-ruleset-status", ID: id, Status: status})
}

func (m *MockClient) GetUserByAccount(_ context.Context, account string) (domain.Record, error) {
	return m.detail(PartitionUsers + "/" + account)
}

func (m *MockClient) UpdateUserStatus(_ context.Context, account, status string) error {
	return m.record(MutationCall{Op: "update-user-status", Account: account, Status: status})
}

// SetDetail registers a by-id or by-account detail record.
func (m *MockClient) SetDetail(partition, id string, rec domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Details[partition+"/"+id] = rec
}

func key(partition string, id int64) string {
	return partition + "/" + domain.Stringify(id)
}

// compile-time check that MockClient implements Client
var _ Client = (*MockClient)(nil)
