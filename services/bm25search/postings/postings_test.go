package postings

import "testing"

func TestInsertMany_SkipsZeroTF(t *testing.T) {
	s := New()
	s.InsertMany([]Tuple{{Doc: 1, Term: 10, TF: 0}})
	if got := s.ByTerm(10); len(got) != 0 {
		t.Errorf("expected zero-tf tuple skipped, got %v", got)
	}
}

func TestByTermByDoc_Symmetric(t *testing.T) {
	s := New()
	s.InsertMany([]Tuple{
		{Doc: 1, Term: 10, TF: 2},
		{Doc: 1, Term: 11, TF: 1},
		{Doc: 2, Term: 10, TF: 3},
	})

	byTerm10 := s.ByTerm(10)
	if len(byTerm10) != 2 {
		t.Fatalf("ByTerm(10) = %v, want 2 postings", byTerm10)
	}

	byDoc1 := s.ByDoc(1)
	if len(byDoc1) != 2 {
		t.Fatalf("ByDoc(1) = %v, want 2 postings", byDoc1)
	}

	if s.DF(10) != 2 {
		t.Errorf("DF(10) = %d, want 2", s.DF(10))
	}
}

func TestDeleteByDoc_RemovesAndReportsAffectedTerms(t *testing.T) {
	s := New()
	s.InsertMany([]Tuple{
		{Doc: 1, Term: 10, TF: 2},
		{Doc: 1, Term: 11, TF: 1},
		{Doc: 2, Term: 10, TF: 3},
	})

	affected := s.DeleteByDoc(1)
	if len(affected) != 2 {
		t.Fatalf("DeleteByDoc affected = %v, want 2 terms", affected)
	}

	if got := s.ByDoc(1); len(got) != 0 {
		t.Errorf("ByDoc(1) after delete = %v, want empty", got)
	}
	if s.DF(10) != 1 {
		t.Errorf("DF(10) after delete = %d, want 1 (doc 2 still present)", s.DF(10))
	}
	if s.DF(11) != 0 {
		t.Errorf("DF(11) after delete = %d, want 0", s.DF(11))
	}
}

func TestDeleteByDoc_UnknownIsNoOp(t *testing.T) {
	s := New()
	if affected := s.DeleteByDoc(99); affected != nil {
		t.Errorf("expected nil for unknown doc, got %v", affected)
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	s := New()
	tuples := []Tuple{
		{Doc: 1, Term: 10, TF: 2},
		{Doc: 2, Term: 10, TF: 3},
		{Doc: 2, Term: 11, TF: 1},
	}
	s.InsertMany(tuples)

	snap := s.Snapshot()
	s2 := New()
	s2.Restore(snap)

	if s2.DF(10) != 2 {
		t.Errorf("DF(10) after restore = %d, want 2", s2.DF(10))
	}
	if len(s2.ByDoc(2)) != 2 {
		t.Errorf("ByDoc(2) after restore = %v, want 2 postings", s2.ByDoc(2))
	}
}
