package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers every bm25search endpoint under rg (typically
// a /v1 router group).
//
//	POST /v1/bm25search/documents            - upload_documents
//	DELETE /v1/bm25search/documents          - delete_documents
//	POST /v1/bm25search/documents/search     - search_documents
//	POST /v1/bm25search/queries              - upload_queries
//	DELETE /v1/bm25search/queries            - delete_queries
//	POST /v1/bm25search/queries/search       - search_queries
//	POST /v1/bm25search/graphs/search        - search_graphs
//	POST /v1/bm25search/evaluate             - evaluate
//	POST /v1/bm25search/stopwords            - add stopwords
//	DELETE /v1/bm25search/stopwords          - remove stopwords
//	GET  /v1/bm25search/health               - health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	bm := rg.Group("/bm25search")
	{
		bm.POST("/documents", handlers.HandleUploadDocuments)
		bm.DELETE("/documents", handlers.HandleDeleteDocuments)
		bm.POST("/documents/search", handlers.HandleSearchDocuments)

		bm.POST("/queries", handlers.HandleUploadQueries)
		bm.DELETE("/queries", handlers.HandleDeleteQueries)
		bm.POST("/queries/search", handlers.HandleSearchQueries)

		bm.POST("/graphs/search", handlers.HandleSearchGraphs)

		bm.POST("/evaluate", handlers.HandleEvaluate)

		bm.POST("/stopwords", handlers.HandleAddStopwords)
		bm.DELETE("/stopwords", handlers.HandleRemoveStopwords)

		bm.GET("/health", handlers.HandleHealth)
	}
}
