package hub

import "testing"

type testWriter struct {
	writes int
	fail   bool
}

func (w *testWriter) Write(message []byte) error {
	w.writes++
	if w.fail {
		return errTest
	}
	return nil
}

func (w *testWriter) Close() error { return nil }

var errTest = &testErr{}

type testErr struct{}

func (*testErr) Error() string { return "test" }

func TestHub_RegisterSendUnregister(t *testing.T) {
	h := New()
	w1 := &testWriter{}
	c1 := &Connection{UserID: 1, Writer: w1}

	h.Register(c1)
	h.SendPersonal(1, []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected 1 write, got %d", w1.writes)
	}

	h.Unregister(c1)
	h.SendPersonal(1, []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected no more writes, got %d", w1.writes)
	}
}

func TestHub_SendToUnknownUserIsNoop(t *testing.T) {
	h := New()
	h.SendPersonal(42, []byte("x"))
}

func TestHub_PrunesFailedConnections(t *testing.T) {
	h := New()
	w1 := &testWriter{fail: true}
	c1 := &Connection{UserID: 1, Writer: w1}
	h.Register(c1)

	h.SendPersonal(1, []byte("x"))
	h.SendPersonal(1, []byte("x"))
	if w1.writes != 1 {
		t.Fatalf("expected only 1 write before removal, got %d", w1.writes)
	}
}

func TestHub_StaleConnectionDoesNotBlockSiblings(t *testing.T) {
	h := New()
	stale := &testWriter{fail: true}
	healthy := &testWriter{}
	h.Register(&Connection{UserID: 1, Writer: stale})
	h.Register(&Connection{UserID: 1, Writer: healthy})

	h.SendPersonal(1, []byte("x"))
	if healthy.writes != 1 {
		t.Fatalf("expected healthy connection to receive the message, got %d writes", healthy.writes)
	}

	h.SendPersonal(1, []byte("y"))
	if healthy.writes != 2 {
		t.Fatalf("expected second delivery, got %d writes", healthy.writes)
	}
	if stale.writes != 1 {
		t.Fatalf("expected stale connection pruned after 1 write, got %d", stale.writes)
	}
}

func TestHub_MultipleUsersIsolated(t *testing.T) {
	h := New()
	w1 := &testWriter{}
	w2 := &testWriter{}
	h.Register(&Connection{UserID: 1, Writer: w1})
	h.Register(&Connection{UserID: 2, Writer: w2})

	h.SendPersonal(1, []byte("x"))
	if w1.writes != 1 || w2.writes != 0 {
		t.Fatalf("expected delivery to user 1 only, got %d/%d", w1.writes, w2.writes)
	}
}
