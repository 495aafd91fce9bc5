// Package api is the HTTP gateway in front of the catalog, persistence and
// share services. Each request gets its own session-bound clients and
// engines; nothing is shared between callers except the catalog.
package api

import (
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/collection"
	"github.com/evade6ix/gundamwebsite/internal/deck"
	"github.com/evade6ix/gundamwebsite/internal/enrich"
	imagepkg "github.com/evade6ix/gundamwebsite/internal/image"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/logging"
	"github.com/evade6ix/gundamwebsite/internal/remote"
	"github.com/evade6ix/gundamwebsite/internal/session"
	"github.com/evade6ix/gundamwebsite/internal/syncagent"
)

type Options struct {
	Catalog cards.Catalog
	// APIURL is the persistence and share service base.
	APIURL string
	// PublicOrigin prefixes share links.
	PublicOrigin string
	HTTP         *http.Client
	Concurrency  int
	Logger       *zap.Logger
}

type Handlers struct {
	catalog cards.Catalog
	joiner  *enrich.Joiner
	apiURL  string
	origin  string
	client  *http.Client
	limit   int
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandlers(o Options) *Handlers {
	logger := logging.OrNop(o.Logger)
	limit := o.Concurrency
	if limit < 1 {
		limit = enrich.DefaultConcurrency
	}
	return &Handlers{
		catalog: o.Catalog,
		joiner:  enrich.NewJoiner(o.Catalog, limit, logger),
		apiURL:  o.APIURL,
		origin:  o.PublicOrigin,
		client:  o.HTTP,
		limit:   limit,
		logger:  logger,
		now:     time.Now,
	}
}

// fail replies with the status mapped from err's kind.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": apperrors.KindOf(err)})
}

func (h *Handlers) persistence(c *gin.Context) *remote.Persistence {
	return remote.NewPersistence(h.apiURL, h.client, sessionOf(c))
}

func (h *Handlers) deckEngine(c *gin.Context) *deck.Engine {
	return deck.NewEngine(h.persistence(c), h.joiner, h.logger)
}

func (h *Handlers) collectionEngine(c *gin.Context) *collection.Engine {
	s := sessionOf(c)
	return collection.NewEngine(collection.Deps{
		Store:   remote.NewPersistence(h.apiURL, h.client, s),
		Sharer:  remote.NewShare(h.apiURL, h.client, s),
		Catalog: h.catalog,
		Joiner:  h.joiner,
		Logger:  h.logger.With(zap.String("owner", s.OwnerID)),
	})
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func atoiOr(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseQuery(c *gin.Context) cards.Query {
	name := c.Query("name")
	if name == "" {
		name = c.Query("q")
	}
	return cards.Query{
		Name:     strings.TrimSpace(name),
		Sets:     splitList(c.QueryArray("set")),
		Types:    splitList(c.QueryArray("type")),
		Rarities: splitList(c.QueryArray("rarity")),
		Page:     atoiOr(c.Query("page"), 1),
		Limit:    cards.ClampLimit(atoiOr(c.Query("limit"), cards.DefaultLimit)),
	}
}

func (h *Handlers) searchCards(c *gin.Context) {
	p, err := h.catalog.Search(c.Request.Context(), parseQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) getCard(c *gin.Context) {
	card, err := h.catalog.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *Handlers) filters(c *gin.Context) {
	f, err := h.catalog.Filters(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

type deckSummary struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Total       int       `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handlers) listDecks(c *gin.Context) {
	ds, err := h.deckEngine(c).ListDecks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]deckSummary, len(ds))
	for i, d := range ds {
		out[i] = deckSummary{Name: d.Name, Description: d.Description, Total: d.Total(), CreatedAt: d.CreatedAt}
	}
	c.JSON(http.StatusOK, gin.H{"decks": out})
}

func (h *Handlers) getDeck(c *gin.Context) {
	d, err := deck.LoadDetail(c.Request.Context(), h.persistence(c), h.joiner, c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type deckRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Cards       []ledger.Item `json:"cards"`
}

func (h *Handlers) createDeck(c *gin.Context) {
	var req deckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.Validation("invalid deck body: "+err.Error()))
		return
	}
	e := h.deckEngine(c)
	e.CreateNew()
	if err := e.Rebuild(req.Cards); err != nil {
		h.fail(c, err)
		return
	}
	d, err := e.Save(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deck": d})
}

// updateDeck replaces the named deck. An empty body name keeps the current one.
func (h *Handlers) updateDeck(c *gin.Context) {
	var req deckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.Validation("invalid deck body: "+err.Error()))
		return
	}
	ctx := c.Request.Context()
	name := c.Param("name")

	e := h.deckEngine(c)
	if err := e.OpenForEdit(ctx, name); err != nil {
		h.fail(c, err)
		return
	}
	if err := e.Rebuild(req.Cards); err != nil {
		h.fail(c, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = name
	}
	d, err := e.Save(ctx, req.Name, req.Description)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": d})
}

func (h *Handlers) deleteDeck(c *gin.Context) {
	if err := h.deckEngine(c).Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) exportDeck(c *gin.Context) {
	d, err := h.persistence(c).GetDeck(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(d.Name+".txt"))
	c.String(http.StatusOK, deck.ExportDeckText(d))
}

// deckImage renders the deck as a PNG. ?qr=<text> adds a QR code header.
func (h *Handlers) deckImage(c *gin.Context) {
	ctx := c.Request.Context()
	d, err := deck.LoadDetail(ctx, h.persistence(c), h.joiner, c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var qr image.Image
	if text := c.Query("qr"); text != "" {
		if qr, err = imagepkg.GenerateQRImage(text, imagepkg.DefaultQRSize); err != nil {
			h.fail(c, err)
			return
		}
	}
	tiles := imagepkg.Tiles(ctx, h.client, d.Cards, h.limit, h.logger)
	b, err := imagepkg.EncodePNG(imagepkg.ComposeDeckImage(tiles, qr))
	if err != nil {
		h.fail(c, apperrors.Transport("encode deck image", err))
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// browseCollection lists catalog cards (mode=browse) or only owned cards
// (mode=collection), each annotated with the owned count.
func (h *Handlers) browseCollection(c *gin.Context) {
	ctx := c.Request.Context()
	e := h.collectionEngine(c)
	if err := e.Load(ctx); err != nil {
		h.fail(c, err)
		return
	}
	e.SetMode(collection.ParseMode(c.Query("mode")))
	res, err := e.Browse(ctx, parseQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cards":      res.Cards,
		"page":       res.Page.Page,
		"totalPages": res.TotalPages,
		"total":      res.Total,
		"mode":       res.Mode,
		"counts":     res.Counts,
		"owned":      e.TotalCount(),
	})
}

// mutateCollection applies one add or remove and waits for its push, so
// the reply reports whether the change reached the persistence service.
func (h *Handlers) mutateCollection(c *gin.Context, add bool) {
	ctx := c.Request.Context()
	id := c.Param("id")

	e := h.collectionEngine(c)
	if err := e.Load(ctx); err != nil {
		h.fail(c, err)
		return
	}

	var (
		en  ledger.Entry
		res *syncagent.Result
		err error
	)
	if add {
		card, gerr := h.catalog.GetCard(ctx, id)
		if gerr != nil {
			h.fail(c, gerr)
			return
		}
		en, res, err = e.AddOne(ctx, card)
	} else {
		en, res, err = e.RemoveOne(ctx, id)
	}
	if err == nil {
		err = res.Wait(ctx)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "count": en.Count, "total": e.TotalCount()})
}

func (h *Handlers) addToCollection(c *gin.Context) {
	h.mutateCollection(c, true)
}

func (h *Handlers) removeFromCollection(c *gin.Context) {
	h.mutateCollection(c, false)
}

func (h *Handlers) shareCollection(c *gin.Context) {
	s, err := h.collectionEngine(c).Share(c.Request.Context(), h.origin)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// shareQR returns the share link as a QR PNG; ?size= sets its edge in pixels.
func (h *Handlers) shareQR(c *gin.Context) {
	s, err := h.collectionEngine(c).Share(c.Request.Context(), h.origin)
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := imagepkg.GenerateQRPNG(s.URL, atoiOr(c.Query("size"), imagepkg.DefaultQRSize))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// viewShared is public: the share id is the only credential.
func (h *Handlers) viewShared(c *gin.Context) {
	r := remote.NewShare(h.apiURL, h.client, session.Anonymous)
	v, err := collection.ViewShared(c.Request.Context(), r, h.joiner, c.Param("shareId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
