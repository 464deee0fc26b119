package registry

import (
	"github.com/provsec/chainregistry/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the interfaces.Registry interface
type MockRegistry struct {
	mock.Mock
}

// Name mocks the Name method
func (m *MockRegistry) Name() string {
	args := m.Called()
	return args.String(0)
}

// Register mocks the Register method
func (m *MockRegistry) Register(ctx interfaces.CallContext, hash interfaces.IntegrityHash) (interfaces.Record, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(interfaces.Record), args.Error(1)
}

// RegisterWithID mocks the RegisterWithID method
func (m *MockRegistry) RegisterWithID(ctx interfaces.CallContext, id interfaces.RecordID, hash interfaces.IntegrityHash) (interfaces.Record, error) {
	args := m.Called(ctx, id, hash)
	return args.Get(0).(interfaces.Record), args.Error(1)
}

// Update mocks the Update method
func (m *MockRegistry) Update(ctx interfaces.CallContext, id interfaces.RecordID, hash interfaces.IntegrityHash) (interfaces.Record, error) {
	args := m.Called(ctx, id, hash)
	return args.Get(0).(interfaces.Record), args.Error(1)
}

// Get mocks the Get method
func (m *MockRegistry) Get(id interfaces.RecordID) (interfaces.Record, error) {
	args := m.Called(id)
	return args.Get(0).(interfaces.Record), args.Error(1)
}

// MockAuditSink mocks the interfaces.AuditSink interface
type MockAuditSink struct {
	mock.Mock
}

// Append mocks the Append method
func (m *MockAuditSink) Append(event interfaces.AuditEvent) interfaces.AuditEvent {
	args := m.Called(event)
	return args.Get(0).(interfaces.AuditEvent)
}
