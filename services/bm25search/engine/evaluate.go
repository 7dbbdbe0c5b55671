package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/AleutianAI/bm25search/services/bm25search/query"
)

// EvalQuery is one labelled query for Evaluate: a query string plus the
// external_keys of the documents considered relevant to it.
type EvalQuery struct {
	Text         string
	RelevantKeys []string
}

// EvalMetrics holds the retrieval-quality metrics Evaluate computes,
// averaged over the query batch (spec's supplemented `evaluate`
// operation, §6).
type EvalMetrics struct {
	PrecisionAtK float64
	RecallAtK    float64
	MRR          float64
	NDCG         float64
}

// Evaluate runs each EvalQuery through the document search path and
// scores the results against its labelled relevant set, reusing the same
// query executor a real search would use so evaluation reflects actual
// retrieval behaviour rather than a separate code path.
func (e *Engine) Evaluate(ctx context.Context, queries []EvalQuery, topK int) (EvalMetrics, error) {
	if len(queries) == 0 {
		return EvalMetrics{}, nil
	}
	if topK <= 0 {
		topK = int(e.cfg.TopK)
	}

	requests := make([]query.Request, len(queries))
	for i, q := range queries {
		requests[i] = query.Request{Text: q.Text}
	}

	results, err := e.SearchDocuments(ctx, requests, query.Options{TopK: topK, TopKToken: int(e.cfg.TopKToken)})
	if err != nil {
		return EvalMetrics{}, fmt.Errorf("engine: evaluate: %w", err)
	}

	var sumPrecision, sumRecall, sumRR, sumNDCG float64
	for i, q := range queries {
		relevant := make(map[string]struct{}, len(q.RelevantKeys))
		for _, k := range q.RelevantKeys {
			relevant[k] = struct{}{}
		}

		hits := results[i].Hits
		var hitCount int
		var rr float64
		var dcg float64
		for rank, hit := range hits {
			key, found := e.Documents.Docs.ExternalKey(hit.Doc)
			if !found {
				continue
			}
			if _, relevantHit := relevant[key]; !relevantHit {
				continue
			}
			hitCount++
			if rr == 0 {
				rr = 1.0 / float64(rank+1)
			}
			dcg += 1.0 / math.Log2(float64(rank+2))
		}

		idcg := idealDCG(len(relevant), len(hits))

		if len(hits) > 0 {
			sumPrecision += float64(hitCount) / float64(len(hits))
		}
		if len(relevant) > 0 {
			sumRecall += float64(hitCount) / float64(len(relevant))
		}
		sumRR += rr
		if idcg > 0 {
			sumNDCG += dcg / idcg
		}
	}

	n := float64(len(queries))
	return EvalMetrics{
		PrecisionAtK: sumPrecision / n,
		RecallAtK:    sumRecall / n,
		MRR:          sumRR / n,
		NDCG:         sumNDCG / n,
	}, nil
}

// idealDCG is the DCG of a perfect ranking: relevantCount relevant
// documents occupying the first ranks, up to resultCount positions.
func idealDCG(relevantCount, resultCount int) float64 {
	n := relevantCount
	if resultCount < n {
		n = resultCount
	}
	var sum float64
	for rank := 0; rank < n; rank++ {
		sum += 1.0 / math.Log2(float64(rank+2))
	}
	return sum
}

