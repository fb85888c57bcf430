package cas

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	content := []byte(`{"displayName":"Button"}`)
	key := Sum(content)
	if err := s.Write(key, content); err != nil {
		t.Fatal(err)
	}

	got, err := s.Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}

	if _, err := os.Stat(filepath.Join(s.Dir(), key[:2], key[2:]+".zst")); err != nil {
		t.Errorf("expected sharded file: %v", err)
	}
}

func TestWrite_Idempotent(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	key := Sum([]byte("k"))
	if err := s.Write(key, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(key, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "first" {
		t.Errorf("existing entry was overwritten: %q", got)
	}
}

func TestWrite_Concurrent(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	key := Sum([]byte("shared"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Write(key, []byte("shared")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "shared" {
		t.Errorf("got %q", got)
	}
}

func TestSum(t *testing.T) {
	t.Parallel()
	if Sum([]byte("ab")) != Sum([]byte("a"), []byte("b")) {
		t.Error("Sum should hash the concatenation of its parts")
	}
	if Sum([]byte("content A")) == Sum([]byte("content B")) {
		t.Error("different content should produce different hashes")
	}
	if len(Sum()) != 64 {
		t.Errorf("expected hex sha256, got %q", Sum())
	}
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	_, err := s.Read("0000000000000000000000000000000000000000000000000000000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Read("ab"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()
	s := New(filepath.Join(t.TempDir(), "cas"))
	key := Sum([]byte("x"))
	if err := s.Write(key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after Clear, got %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clearing an empty store: %v", err)
	}
}
