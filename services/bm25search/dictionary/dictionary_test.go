package dictionary

import (
	"sync"
	"testing"
)

func TestIntern_NewAndExisting(t *testing.T) {
	d := New()
	id1 := d.Intern("cat")
	id2 := d.Intern("cat")
	if id1 != id2 {
		t.Fatalf("Intern(cat) returned different ids: %d, %d", id1, id2)
	}
	id3 := d.Intern("dog")
	if id3 == id1 {
		t.Fatalf("expected distinct id for dog")
	}
}

func TestIntern_DenseAssignment(t *testing.T) {
	d := New()
	for i, w := range []string{"a", "b", "c"} {
		id := d.Intern(w)
		if int(id) != i {
			t.Errorf("Intern(%q) = %d, want %d", w, id, i)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	d := New()
	if _, ok := d.Lookup("ghost"); ok {
		t.Error("expected Lookup to miss for never-interned surface")
	}
}

func TestBumpDF_ClampsAtZero(t *testing.T) {
	d := New()
	id := d.Intern("cat")
	d.BumpDF(id, -5)
	df, err := d.DF(id)
	if err != nil {
		t.Fatalf("DF: %v", err)
	}
	if df != 0 {
		t.Errorf("DF after negative bump below zero = %d, want 0", df)
	}

	d.BumpDF(id, 3)
	df, _ = d.DF(id)
	if df != 3 {
		t.Errorf("DF = %d, want 3", df)
	}
}

func TestBumpDF_UnknownIsNoOp(t *testing.T) {
	d := New()
	d.BumpDF(99, 5) // must not panic
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	d := New()
	d.Intern("cat")
	d.Intern("dog")
	id := d.Intern("fish")
	d.BumpDF(id, 2)

	snap := d.Snapshot()

	d2 := New()
	d2.Restore(snap)

	if d2.Len() != d.Len() {
		t.Fatalf("Len after restore = %d, want %d", d2.Len(), d.Len())
	}
	gotID, ok := d2.Lookup("fish")
	if !ok {
		t.Fatal("expected fish to be present after restore")
	}
	df, _ := d2.DF(gotID)
	if df != 2 {
		t.Errorf("DF after restore = %d, want 2", df)
	}
}

func TestIntern_ConcurrentSameSurface(t *testing.T) {
	d := New()
	const n = 50
	ids := make([]TermID, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			ids[i] = d.Intern("shared")
		}()
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent Intern produced distinct ids: %v", ids)
		}
	}
}
