package routes

import (
	"net/http"

	"github.com/storedir/backend/internal/api/handlers"
	"github.com/storedir/backend/internal/api/middleware"
	"github.com/storedir/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler   *handlers.AuthHandler
	storeHandler  *handlers.StoreHandler
	tagHandler    *handlers.TagHandler
	searchHandler *handlers.SearchHandler
	reviewHandler *handlers.ReviewHandler
	heartHandler  *handlers.HeartHandler

	tokenValidator  middleware.TokenValidator
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	authHandler *handlers.AuthHandler,
	storeHandler *handlers.StoreHandler,
	tagHandler *handlers.TagHandler,
	searchHandler *handlers.SearchHandler,
	reviewHandler *handlers.ReviewHandler,
	heartHandler *handlers.HeartHandler,
	tokenValidator middleware.TokenValidator,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		authHandler:     authHandler,
		storeHandler:    storeHandler,
		tagHandler:      tagHandler,
		searchHandler:   searchHandler,
		reviewHandler:   reviewHandler,
		heartHandler:    heartHandler,
		tokenValidator:  tokenValidator,
		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	requireAuth := middleware.RequireAuth(r.tokenValidator)
	optionalAuth := middleware.OptionalAuth(r.tokenValidator)

	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Auth endpoints
	r.mux.HandleFunc("POST /api/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /api/login", r.authHandler.Login)
	r.mux.Handle("GET /api/account", requireAuth(http.HandlerFunc(r.authHandler.GetAccount)))
	r.mux.Handle("PUT /api/account", requireAuth(http.HandlerFunc(r.authHandler.UpdateAccount)))
	r.mux.HandleFunc("POST /api/account/forgot", r.authHandler.Forgot)
	r.mux.HandleFunc("POST /api/account/reset/{token}", r.authHandler.Reset)

	// Store endpoints. The literal segments must be registered before the
	// {id} wildcard routes they would otherwise shadow.
	r.mux.HandleFunc("GET /api/stores", r.storeHandler.ListStores)
	r.mux.Handle("POST /api/stores", requireAuth(http.HandlerFunc(r.storeHandler.CreateStore)))
	r.mux.HandleFunc("GET /api/stores/top", r.storeHandler.TopStores)
	r.mux.HandleFunc("GET /api/stores/near", r.storeHandler.NearbyStores)
	r.mux.HandleFunc("GET /api/stores/{id}", r.storeHandler.GetStore)
	r.mux.Handle("PUT /api/stores/{id}", requireAuth(http.HandlerFunc(r.storeHandler.UpdateStore)))
	r.mux.Handle("POST /api/stores/{id}/photo", requireAuth(http.HandlerFunc(r.storeHandler.UploadPhoto)))
	r.mux.HandleFunc("GET /api/store/{slug}", r.storeHandler.GetStoreBySlug)

	// Review endpoints
	r.mux.Handle("GET /api/stores/{id}/reviews", optionalAuth(http.HandlerFunc(r.reviewHandler.ListReviews)))
	r.mux.Handle("POST /api/stores/{id}/reviews", requireAuth(http.HandlerFunc(r.reviewHandler.CreateReview)))

	// Heart endpoints
	r.mux.Handle("POST /api/stores/{id}/heart", requireAuth(http.HandlerFunc(r.heartHandler.ToggleHeart)))
	r.mux.Handle("GET /api/hearts", requireAuth(http.HandlerFunc(r.heartHandler.ListHeartedStores)))

	// Tag endpoints
	r.mux.HandleFunc("GET /api/tags", r.tagHandler.ListTags)
	r.mux.HandleFunc("GET /api/tags/{tag}/stores", r.tagHandler.StoresByTag)

	// Search endpoint
	r.mux.HandleFunc("GET /api/search", r.searchHandler.Search)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	handler = middleware.CORSMiddleware(handler)

	return handler
}
