package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/bm25search/services/bm25search/docstore"
	"github.com/AleutianAI/bm25search/services/bm25search/engine"
	"github.com/AleutianAI/bm25search/services/bm25search/indexer"
	"github.com/AleutianAI/bm25search/services/bm25search/query"
)

// UploadRequest is the JSON body for upload_documents and upload_queries.
type UploadRequest struct {
	Records []UploadRecord `json:"records" binding:"required"`
	Fields  []string       `json:"fields" binding:"required"`
}

// UploadRecord is one caller-supplied row, keyed by an external identifier
// the engine uses to detect and skip duplicates on re-upload.
type UploadRecord struct {
	ExternalKey string       `json:"external_key" binding:"required"`
	Row         docstore.Row `json:"row" binding:"required"`
}

// UploadResponse reports how an upload batch was handled.
type UploadResponse struct {
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	FailedKeys []string `json:"failed_keys,omitempty"`
}

func toRecords(records []UploadRecord) []indexer.Record {
	out := make([]indexer.Record, len(records))
	for i, r := range records {
		out[i] = indexer.Record{ExternalKey: r.ExternalKey, Row: r.Row}
	}
	return out
}

func toUploadResponse(s indexer.Summary) UploadResponse {
	return UploadResponse{Inserted: s.Inserted, Skipped: s.Skipped, Failed: s.Failed, FailedKeys: s.FailedKeys}
}

// HandleUploadDocuments handles POST /v1/bm25search/documents.
func (h *Handlers) HandleUploadDocuments(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	summary, err := h.Engine.UploadDocuments(c.Request.Context(), toRecords(req.Records), req.Fields)
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toUploadResponse(summary))
}

// HandleUploadQueries handles POST /v1/bm25search/queries.
func (h *Handlers) HandleUploadQueries(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	summary, err := h.Engine.UploadQueries(c.Request.Context(), toRecords(req.Records), req.Fields)
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toUploadResponse(summary))
}

// DeleteRequest is the JSON body for delete_documents and delete_queries.
type DeleteRequest struct {
	ExternalKeys []string `json:"external_keys" binding:"required"`
}

// DeleteResponse reports which doc_ids were removed.
type DeleteResponse struct {
	Deleted []docstore.DocID `json:"deleted"`
}

// HandleDeleteDocuments handles DELETE /v1/bm25search/documents.
func (h *Handlers) HandleDeleteDocuments(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	summary, err := h.Engine.DeleteDocuments(c.Request.Context(), req.ExternalKeys)
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Deleted: summary.Deleted})
}

// HandleDeleteQueries handles DELETE /v1/bm25search/queries.
func (h *Handlers) HandleDeleteQueries(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	summary, err := h.Engine.DeleteQueries(c.Request.Context(), req.ExternalKeys)
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, DeleteResponse{Deleted: summary.Deleted})
}

// SearchRequest is the JSON body for search_documents and search_queries.
type SearchRequest struct {
	Queries   []string `json:"queries" binding:"required"`
	TopK      int      `json:"top_k"`
	TopKToken int      `json:"top_k_token"`
	Filter    string   `json:"filter"`
	OrderBy   string   `json:"order_by"`
	NJobs     int      `json:"n_jobs"`
}

func (r SearchRequest) toOptions() query.Options {
	return query.Options{
		TopK:      r.TopK,
		TopKToken: r.TopKToken,
		Filter:    r.Filter,
		OrderBy:   r.OrderBy,
		NJobs:     r.NJobs,
	}
}

func (r SearchRequest) toRequests() []query.Request {
	out := make([]query.Request, len(r.Queries))
	for i, q := range r.Queries {
		out[i] = query.Request{Text: q}
	}
	return out
}

// SearchHit is one scored result row, hydrated with its stored columns.
type SearchHit struct {
	Doc   docstore.DocID `json:"doc_id"`
	Score float64        `json:"score"`
	Row   docstore.Row   `json:"row"`
}

// SearchResult holds the hits for one query in a search batch.
type SearchResult struct {
	Hits    []SearchHit `json:"hits"`
	Partial bool        `json:"partial"`
}

// SearchResponse is the JSON body returned by search_documents and
// search_queries, one SearchResult per input query, same order.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

func toSearchResponse(results []query.Result) SearchResponse {
	out := SearchResponse{Results: make([]SearchResult, len(results))}
	for i, r := range results {
		hits := make([]SearchHit, len(r.Hits))
		for j, h := range r.Hits {
			hits[j] = SearchHit{Doc: h.Doc, Score: h.Score, Row: h.Row}
		}
		out.Results[i] = SearchResult{Hits: hits, Partial: r.Partial}
	}
	return out
}

// HandleSearchDocuments handles POST /v1/bm25search/documents/search.
func (h *Handlers) HandleSearchDocuments(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	results, err := h.Engine.SearchDocuments(c.Request.Context(), req.toRequests(), req.toOptions())
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toSearchResponse(results))
}

// HandleSearchQueries handles POST /v1/bm25search/queries/search.
func (h *Handlers) HandleSearchQueries(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	results, err := h.Engine.SearchQueries(c.Request.Context(), req.toRequests(), req.toOptions())
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toSearchResponse(results))
}

// GraphSearchRequest is the JSON body for search_graphs.
type GraphSearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

// GraphHit is one hybrid document/query re-ranked result.
type GraphHit struct {
	Doc   docstore.DocID `json:"doc_id"`
	Score float64        `json:"score"`
}

// GraphSearchResponse is the JSON body returned by search_graphs.
type GraphSearchResponse struct {
	Hits []GraphHit `json:"hits"`
}

// HandleSearchGraphs handles POST /v1/bm25search/graphs/search.
func (h *Handlers) HandleSearchGraphs(c *gin.Context) {
	var req GraphSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	scores, err := h.Engine.SearchGraphs(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	hits := make([]GraphHit, len(scores))
	for i, s := range scores {
		hits[i] = GraphHit{Doc: s.Doc, Score: s.Score}
	}
	c.JSON(http.StatusOK, GraphSearchResponse{Hits: hits})
}

// EvaluateRequest is the JSON body for evaluate.
type EvaluateRequest struct {
	Queries []EvaluateQuery `json:"queries" binding:"required"`
	TopK    int             `json:"top_k"`
}

// EvaluateQuery pairs a query string with the external keys of the
// documents a caller has labelled relevant to it.
type EvaluateQuery struct {
	Text         string   `json:"text" binding:"required"`
	RelevantKeys []string `json:"relevant_keys"`
}

// EvaluateResponse is the JSON body returned by evaluate.
type EvaluateResponse struct {
	PrecisionAtK float64 `json:"precision_at_k"`
	RecallAtK    float64 `json:"recall_at_k"`
	MRR          float64 `json:"mrr"`
	NDCG         float64 `json:"ndcg"`
}

// HandleEvaluate handles POST /v1/bm25search/evaluate.
func (h *Handlers) HandleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	queries := make([]engine.EvalQuery, len(req.Queries))
	for i, q := range req.Queries {
		queries[i] = engine.EvalQuery{Text: q.Text, RelevantKeys: q.RelevantKeys}
	}
	metrics, err := h.Engine.Evaluate(c.Request.Context(), queries, req.TopK)
	if err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, EvaluateResponse{
		PrecisionAtK: metrics.PrecisionAtK,
		RecallAtK:    metrics.RecallAtK,
		MRR:          metrics.MRR,
		NDCG:         metrics.NDCG,
	})
}

// StopwordsRequest is the JSON body for add/remove stopwords.
type StopwordsRequest struct {
	Words []string `json:"words" binding:"required"`
}

// HandleAddStopwords handles POST /v1/bm25search/stopwords.
func (h *Handlers) HandleAddStopwords(c *gin.Context) {
	var req StopwordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	if err := h.Engine.AddStopwords(c.Request.Context(), req.Words); err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleRemoveStopwords handles DELETE /v1/bm25search/stopwords.
func (h *Handlers) HandleRemoveStopwords(c *gin.Context) {
	var req StopwordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
		return
	}
	if err := h.Engine.RemoveStopwords(c.Request.Context(), req.Words); err != nil {
		writeEngineError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleHealth handles GET /v1/bm25search/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
