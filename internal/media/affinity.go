package media

import "sync"

// DeviceStore remembers the last-known target device for control operations.
// It is injectable so tests can substitute their own.
type DeviceStore interface {
	Device() string
	SetDevice(id string)
	Clear()
}

// MemoryDeviceStore is the default in-process store.
type MemoryDeviceStore struct {
	mu sync.Mutex
	id string
}

// NewMemoryDeviceStore creates an empty store.
func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{}
}

// Device returns the remembered device id, or "" when none is known.
func (s *MemoryDeviceStore) Device() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SetDevice remembers id as the active control target.
func (s *MemoryDeviceStore) SetDevice(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

// Clear forgets the remembered device.
func (s *MemoryDeviceStore) Clear() {
	s.mu.Lock()
	s.id = ""
	s.mu.Unlock()
}
