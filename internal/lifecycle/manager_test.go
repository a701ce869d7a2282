package lifecycle

import (
	"errors"
	"testing"
)

func TestManager_ClosesInReverseOrder(t *testing.T) {
	m := NewManager()
	var order []string

	m.RegisterFunc("store", func() error {
		order = append(order, "store")
		return nil
	})
	m.RegisterFunc("server", func() error {
		order = append(order, "server")
		return nil
	})

	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "server" || order[1] != "store" {
		t.Errorf("close order = %v, want [server store]", order)
	}
}

func TestManager_ContinuesPastFailures(t *testing.T) {
	m := NewManager()
	closeErr := errors.New("close failed")
	var storeClosed bool

	m.RegisterFunc("store", func() error {
		storeClosed = true
		return nil
	})
	m.RegisterFunc("server", func() error { return closeErr })

	if err := m.Close(); !errors.Is(err, closeErr) {
		t.Errorf("expected close error, got %v", err)
	}
	if !storeClosed {
		t.Error("store was not closed after earlier failure")
	}
}
