package store

import (
	"os"
	"path/filepath"
	"testing"

	"memocal/internal/model"
)

func TestJSONStore_PutGetReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON failed: %v", err)
	}

	if _, ok, err := s.Get("111"); err != nil || ok {
		t.Fatalf("Get on empty store = ok=%v err=%v", ok, err)
	}

	rec := model.Record{Status: model.StatusConfirmed, ReplyID: "222"}
	if err := s.Put("111", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := s.Get("111")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v", ok, err)
	}
	if got != rec {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}

	// A reopened store sees the persisted record.
	s2, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, ok, _ = s2.Get("111")
	if !ok || got != rec {
		t.Errorf("after reopen Get = %+v ok=%v, want %+v", got, ok, rec)
	}
}

func TestJSONStore_PutOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON failed: %v", err)
	}

	if err := s.Put("k", model.Record{Status: model.StatusConfirmed, ReplyID: "a"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put("k", model.Record{Status: model.StatusUnconfirmed, ReplyID: "a"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, _, _ := s.Get("k")
	if got.Status != model.StatusUnconfirmed {
		t.Errorf("Status = %q, want unconfirmed", got.Status)
	}
}

func TestJSONStore_Snapshot(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenJSON(filepath.Join(dir, "state.json"))
	if err != nil {
		t.Fatalf("OpenJSON failed: %v", err)
	}
	if err := s.Put("k", model.Record{Status: model.StatusConfirmed, ReplyID: "r"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	snapDir := filepath.Join(dir, "snapshots")
	path, err := s.Snapshot(snapDir)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
}

func TestSQLiteStore_PutGetReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}

	if _, ok, err := s.Get("111"); err != nil || ok {
		t.Fatalf("Get on empty store = ok=%v err=%v", ok, err)
	}

	rec := model.Record{Status: model.StatusConfirmed, ReplyID: "222"}
	if err := s.Put("111", rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Upsert flips status in place.
	rec.Status = model.StatusUnconfirmed
	if err := s.Put("111", rec); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, ok, err := s.Get("111")
	if err != nil || !ok {
		t.Fatalf("Get = ok=%v err=%v", ok, err)
	}
	if got != rec {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()
	got, ok, _ = s2.Get("111")
	if !ok || got != rec {
		t.Errorf("after reopen Get = %+v ok=%v, want %+v", got, ok, rec)
	}
}
