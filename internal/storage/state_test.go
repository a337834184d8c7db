package storage

import (
	"path/filepath"
	"testing"

	"github.com/dokzlo13/irlightd/internal/db"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "state.sqlite"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database.DB)
}

func TestStore_SetBumpsVersion(t *testing.T) {
	s := openStore(t)

	payload, version, err := s.Get("light", "bedroom")
	if err != nil || payload != nil || version != 0 {
		t.Fatalf("missing entry: got %q v%d err %v", payload, version, err)
	}

	for i := 1; i <= 3; i++ {
		if err := s.Set("light", "bedroom", []byte(`{"on":true}`)); err != nil {
			t.Fatalf("Set: %v", err)
		}
		_, version, err = s.Get("light", "bedroom")
		if err != nil {
			t.Fatal(err)
		}
		if version != int64(i) {
			t.Errorf("version = %d, want %d", version, i)
		}
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := openStore(t)
	s.Set("light", "a", []byte(`1`))
	s.Set("light", "b", []byte(`2`))
	s.Set("other", "c", []byte(`3`))

	if err := s.Delete("light", "a"); err != nil {
		t.Fatal(err)
	}
	all, _, err := s.GetAll("light")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || string(all["b"]) != "2" {
		t.Errorf("GetAll after delete = %v", all)
	}

	if err := s.Clear("light"); err != nil {
		t.Fatal(err)
	}
	if p, _, _ := s.Get("other", "c"); string(p) != "3" {
		t.Error("Clear(kind) removed another kind")
	}

	if err := s.Clear(""); err != nil {
		t.Fatal(err)
	}
	if p, _, _ := s.Get("other", "c"); p != nil {
		t.Error("Clear(\"\") kept entries")
	}
}

type lamp struct {
	On         bool    `json:"on"`
	Brightness float64 `json:"brightness"`
}

func TestTypedStore(t *testing.T) {
	ts := NewTypedStore[lamp](openStore(t), "lamp")

	if err := ts.Set("desk", lamp{On: true, Brightness: 0.4}); err != nil {
		t.Fatal(err)
	}
	got, version, err := ts.Get("desk")
	if err != nil {
		t.Fatal(err)
	}
	if !got.On || got.Brightness != 0.4 || version != 1 {
		t.Errorf("Get = %+v v%d", got, version)
	}

	zero, version, err := ts.Get("nope")
	if err != nil || zero != (lamp{}) || version != 0 {
		t.Errorf("missing id: %+v v%d err %v", zero, version, err)
	}

	all, _, err := ts.GetAll()
	if err != nil || len(all) != 1 {
		t.Errorf("GetAll = %v, %v", all, err)
	}
}
