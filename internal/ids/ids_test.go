package ids

import "testing"

func TestNewLocalIsLocal(t *testing.T) {
	id := NewLocal()
	if !IsLocal(id) {
		t.Fatalf("expected %s to be local", id)
	}
	if IsLocal(New()) {
		t.Fatalf("expected server-style id not to be local")
	}
	if NewLocal() == id {
		t.Fatalf("expected unique local ids")
	}
}
