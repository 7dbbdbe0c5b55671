package engine

import (
	"context"
	"math"
	"testing"
)

func TestEvaluate_PerfectRankingScoresMaximally(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	metrics, err := e.Evaluate(context.Background(), []EvalQuery{
		{Text: "cat", RelevantKeys: []string{"a", "c"}},
	}, 10)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if metrics.RecallAtK != 1.0 {
		t.Errorf("RecallAtK = %v, want 1.0 (both relevant docs retrieved)", metrics.RecallAtK)
	}
	if metrics.MRR != 1.0 {
		t.Errorf("MRR = %v, want 1.0 (a relevant doc ranked first)", metrics.MRR)
	}
	if metrics.NDCG != 1.0 {
		t.Errorf("NDCG = %v, want 1.0 (both relevant docs occupy the top ranks)", metrics.NDCG)
	}
}

func TestEvaluate_IrrelevantRelevantSetScoresZero(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	metrics, err := e.Evaluate(context.Background(), []EvalQuery{
		{Text: "cat", RelevantKeys: []string{"b"}},
	}, 10)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if metrics.PrecisionAtK != 0 {
		t.Errorf("PrecisionAtK = %v, want 0", metrics.PrecisionAtK)
	}
	if metrics.RecallAtK != 0 {
		t.Errorf("RecallAtK = %v, want 0", metrics.RecallAtK)
	}
	if metrics.MRR != 0 {
		t.Errorf("MRR = %v, want 0", metrics.MRR)
	}
}

func TestEvaluate_EmptyBatchReturnsZeroValueMetrics(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	metrics, err := e.Evaluate(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if metrics != (EvalMetrics{}) {
		t.Errorf("metrics = %+v, want zero value for an empty batch", metrics)
	}
}

func TestEvaluate_NoRelevantDocsRetrievedLeavesNDCGZero(t *testing.T) {
	e := newTestEngine(t)
	seedDocs(t, e)

	metrics, err := e.Evaluate(context.Background(), []EvalQuery{
		{Text: "cat", RelevantKeys: []string{"nonexistent-key"}},
	}, 10)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if metrics.NDCG != 0 {
		t.Errorf("NDCG = %v, want 0", metrics.NDCG)
	}
}

func TestIdealDCG_MatchesClosedForm(t *testing.T) {
	got := idealDCG(2, 5)
	want := 1.0/math.Log2(2) + 1.0/math.Log2(3)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("idealDCG(2, 5) = %v, want %v", got, want)
	}
}
