package chat

import "sync"

// Field is an in-memory input field safe for concurrent use.
type Field struct {
	mu    sync.Mutex
	value string
}

func (f *Field) Set(value string) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
}

func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Field) ReadAndClear() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.value
	f.value = ""
	return v
}
