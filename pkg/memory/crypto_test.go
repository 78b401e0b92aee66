package memory

import (
	"context"
	"testing"
	"time"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := "what is my behavioral index?"

	sealed, err := encryptMessage("session-1", plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if sealed == plain {
		t.Fatal("ciphertext must differ from plaintext")
	}

	opened, err := decryptMessage("session-1", sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if opened != plain {
		t.Errorf("round trip mismatch: %q", opened)
	}
}

func TestDecryptWithWrongSessionFails(t *testing.T) {
	sealed, err := encryptMessage("session-1", "secret turn")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := decryptMessage("session-2", sealed); err == nil {
		t.Error("another session's key must not decrypt the message")
	}
}

func TestSessionKeyIsDeterministic(t *testing.T) {
	a := sessionKey("abc")
	b := sessionKey("abc")
	c := sessionKey("abd")

	if string(a) != string(b) {
		t.Error("same session must derive the same key")
	}
	if string(a) == string(c) {
		t.Error("different sessions must derive different keys")
	}
	if len(a) != 32 {
		t.Errorf("key must be 32 bytes, got %d", len(a))
	}
}

type fakeStore struct {
	history   []Message
	getCalls  int
	saveCalls int
}

func (f *fakeStore) GetHistory(context.Context, string, string, int) ([]Message, error) {
	f.getCalls++
	return f.history, nil
}

func (f *fakeStore) SaveHistory(_ context.Context, _, _, userMsg, assistantMsg string) error {
	f.saveCalls++
	f.history = append(f.history,
		Message{Role: "user", Content: userMsg},
		Message{Role: "assistant", Content: assistantMsg},
	)
	return nil
}

func TestCachedStoreHitsBackendOnce(t *testing.T) {
	backend := &fakeStore{history: []Message{{Role: "user", Content: "hi"}}}
	store := NewCachedStore(backend, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.GetHistory(ctx, "u1", "s1", 10); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if backend.getCalls != 1 {
		t.Errorf("expected 1 backend read, got %d", backend.getCalls)
	}
}

func TestCachedStoreInvalidatesOnSave(t *testing.T) {
	backend := &fakeStore{}
	store := NewCachedStore(backend, time.Minute)
	ctx := context.Background()

	if _, err := store.GetHistory(ctx, "u1", "s1", 10); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := store.SaveHistory(ctx, "u1", "s1", "question", "answer"); err != nil {
		t.Fatalf("save: %v", err)
	}

	history, err := store.GetHistory(ctx, "u1", "s1", 10)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected fresh history after save, got %d messages", len(history))
	}
	if backend.getCalls != 2 {
		t.Errorf("save must invalidate the cache, backend reads = %d", backend.getCalls)
	}
}
