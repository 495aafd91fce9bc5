package api

import "github.com/gin-gonic/gin"

// NewRouter returns a gin engine with every gateway route registered.
// Raw paths are matched so deck names may contain escaped slashes.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.Use(gin.Recovery())
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	r.Use(requestID(), h.accessLog())

	api := r.Group("/api")
	api.Use(h.withSession())
	{
		api.GET("/health", health)

		api.GET("/cards", h.searchCards)
		api.GET("/cards/:id", h.getCard)
		api.GET("/filters", h.filters)

		api.GET("/collection/view/:shareId", h.viewShared)
	}

	authed := api.Group("", requireAuth())
	{
		authed.GET("/decks", h.listDecks)
		authed.POST("/decks", h.createDeck)
		authed.GET("/decks/:name", h.getDeck)
		authed.PUT("/decks/:name", h.updateDeck)
		authed.DELETE("/decks/:name", h.deleteDeck)
		authed.GET("/decks/:name/export", h.exportDeck)
		authed.GET("/decks/:name/image", h.deckImage)

		authed.GET("/collection", h.browseCollection)
		authed.POST("/collection/cards/:id", h.addToCollection)
		authed.DELETE("/collection/cards/:id", h.removeFromCollection)
		authed.POST("/collection/share", h.shareCollection)
		authed.GET("/collection/share/qr", h.shareQR)
	}
}
