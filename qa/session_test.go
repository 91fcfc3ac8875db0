package qa

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialbench/annotator/db"
)

func tempStore(t *testing.T) *db.FileStore {
	t.Helper()
	dir, err := ioutil.TempDir("", "annotator-qa")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	s, err := db.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSessionAutoSave(t *testing.T) {
	store := tempStore(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	s, err := Open(store, "round1", log)
	if err != nil {
		t.Fatal(err)
	}
	if hook.LastEntry().Message != "starting empty dataset" {
		t.Errorf("log = %q", hook.LastEntry().Message)
	}

	var created *QA
	err = s.Do(func(d *Dataset) (err error) {
		created, err = d.Create("aria01", Patch{Question: str("q?")})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	again, err := Open(store, "round1.json", log)
	if err != nil {
		t.Fatal(err)
	}
	err = again.View(func(d *Dataset) error {
		_, err := d.Get(created.ID)
		return err
	})
	if err != nil {
		t.Errorf("reopened session lost %s: %v", created.ID, err)
	}
}

func TestSessionFailedDoDoesNotSave(t *testing.T) {
	store := tempStore(t)
	log, _ := test.NewNullLogger()
	s, err := Open(store, "round2", log)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err = s.Do(func(d *Dataset) error {
		d.Create("aria01", Patch{})
		return boom
	})
	if err != boom {
		t.Fatalf("Do() error = %v", err)
	}
	entries, _ := store.List()
	if len(entries) != 0 {
		t.Errorf("failed Do() wrote %v", entries)
	}
}

func TestSessionManualSave(t *testing.T) {
	store := tempStore(t)
	s, err := Open(store, "round3", nil)
	if err != nil {
		t.Fatal(err)
	}
	s.AutoSave = false
	s.Do(func(d *Dataset) error {
		_, err := d.Create("aria01", Patch{})
		return err
	})
	if entries, _ := store.List(); len(entries) != 0 {
		t.Fatalf("AutoSave=false wrote %v", entries)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if entries, _ := store.List(); len(entries) != 1 || entries[0].Name != "round3.json" {
		t.Errorf("Save() wrote %v", entries)
	}
}

func TestSessionOpenCorrupt(t *testing.T) {
	store := tempStore(t)
	if err := store.Put("bad", 42); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(store, "bad", nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("Open() error = %v, want ErrInvalid", err)
	}
}

func TestSessionSetAutoSave(t *testing.T) {
	store := tempStore(t)
	log, hook := test.NewNullLogger()
	s, err := Open(store, "round2", log)
	if err != nil {
		t.Fatal(err)
	}
	s.SetAutoSave(false)
	if s.AutoSaving() {
		t.Fatal("AutoSaving() after SetAutoSave(false)")
	}
	if hook.LastEntry().Data["autosave"] != false {
		t.Errorf("log fields = %v", hook.LastEntry().Data)
	}
	err = s.Do(func(d *Dataset) error {
		_, err := d.Create("aria01", Patch{})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err := store.Get("round2", &raw); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("document written with autosave off: %v", err)
	}

	s.SetAutoSave(true)
	err = s.Do(func(d *Dataset) error {
		_, err := d.Create("aria01", Patch{})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Get("round2", &raw); err != nil {
		t.Errorf("document not written with autosave on: %v", err)
	}
}
