package mqtt

import (
	"sync"

	coremqtt "github.com/kilianp07/vppsim/core/mqtt"
)

// Message is a payload recorded by MockPublisher.
type Message struct {
	Topic   string
	Kind    string
	Payload []byte
}

// MockPublisher records published messages in memory.
type MockPublisher struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned by every Publish call.
	Err error
}

var _ coremqtt.Client = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// Publish records the message or returns Err.
func (m *MockPublisher) Publish(topic, kind string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, Message{Topic: topic, Kind: kind, Payload: append([]byte(nil), payload...)})
	return nil
}

// Messages returns a copy of the recorded messages.
func (m *MockPublisher) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
