package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/collection"
	"github.com/evade6ix/gundamwebsite/internal/deck"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/session"
)

var (
	_ deck.Store          = (*Persistence)(nil)
	_ collection.Store    = (*Persistence)(nil)
	_ collection.Sharer   = (*Share)(nil)
	_ collection.Resolver = (*Share)(nil)
)

const token = "tok-123"

var owner = session.Session{Token: token, OwnerID: "u1"}

// fakeAPI is an in-memory persistence and share service.
type fakeAPI struct {
	mu         sync.Mutex
	collection []ledger.Item
	decks      map[string]deck.Deck
	shares     map[string][]ledger.Item
	shareID    string
	lastPath   string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{decks: map[string]deck.Deck{}, shares: map[string][]ledger.Item{}}
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true

	auth := r.Group("/auth")
	auth.GET("/collection/shared/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch id := c.Param("id"); id {
		case "expired":
			c.JSON(http.StatusGone, gin.H{"detail": "Share link expired"})
		default:
			items, ok := f.shares[id]
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"detail": "Shared collection not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"cards": items})
		}
	})

	protected := auth.Group("")
	protected.Use(func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		f.mu.Lock()
		f.lastPath = c.Request.URL.EscapedPath()
		f.mu.Unlock()
		c.Next()
	})
	protected.GET("/me", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		ds := []deck.Deck{}
		for _, d := range f.decks {
			ds = append(ds, d)
		}
		c.JSON(http.StatusOK, gin.H{"email": "a@b.c", "collection": f.collection, "decks": ds})
	})
	protected.PUT("/collection", func(c *gin.Context) {
		var body struct {
			Cards []ledger.Item `json:"cards"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		f.mu.Lock()
		f.collection = body.Cards
		f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"message": "Collection updated"})
	})
	protected.POST("/collection/share", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.shareID == "" {
			f.shareID = "s-42"
		}
		f.shares[f.shareID] = append([]ledger.Item(nil), f.collection...)
		c.JSON(http.StatusOK, gin.H{"shareId": f.shareID})
	})
	protected.POST("/decks", func(c *gin.Context) {
		var d deck.Deck
		if err := c.ShouldBindJSON(&d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.decks[d.Name]; ok {
			c.JSON(http.StatusConflict, gin.H{"detail": "Deck already exists"})
			return
		}
		f.decks[d.Name] = d
		c.JSON(http.StatusOK, gin.H{"message": "Deck saved"})
	})
	protected.GET("/users/decks/:name", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		d, ok := f.decks[c.Param("name")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Deck not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deck": d})
	})
	protected.PUT("/users/decks/:name", func(c *gin.Context) {
		var d deck.Deck
		if err := c.ShouldBindJSON(&d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		name := c.Param("name")
		if _, ok := f.decks[name]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Deck not found"})
			return
		}
		delete(f.decks, name)
		f.decks[d.Name] = d
		c.JSON(http.StatusOK, gin.H{"message": "Deck updated"})
	})
	protected.DELETE("/users/decks/:name", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := c.Param("name")
		if _, ok := f.decks[name]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Deck not found"})
			return
		}
		delete(f.decks, name)
		c.Status(http.StatusNoContent)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestPersistenceCollectionRoundTrip(t *testing.T) {
	f := newFakeAPI()
	srv := f.server(t)
	p := NewPersistence(srv.URL+"/", srv.Client(), owner)
	ctx := context.Background()

	got, err := p.GetCollection(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	items := []ledger.Item{{ID: "GD01-001", Name: "Gundam", Count: 2}}
	require.NoError(t, p.PutCollection(ctx, items))

	got, err = p.GetCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestPersistenceAnonymousNeverCallsOut(t *testing.T) {
	f := newFakeAPI()
	srv := f.server(t)
	p := NewPersistence(srv.URL, srv.Client(), session.Anonymous)

	_, err := p.GetCollection(context.Background())
	assert.True(t, apperrors.IsAuth(err))
	assert.ErrorIs(t, err, session.ErrNoCredential)
	assert.Empty(t, f.lastPath)
}

func TestPersistenceRejectedToken(t *testing.T) {
	srv := newFakeAPI().server(t)
	p := NewPersistence(srv.URL, srv.Client(), session.Session{Token: "stale"})

	err := p.PutCollection(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))
	assert.Contains(t, err.Error(), "Not authenticated")
}

func TestPersistenceDeckLifecycle(t *testing.T) {
	f := newFakeAPI()
	srv := f.server(t)
	p := NewPersistence(srv.URL, srv.Client(), owner)
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d := deck.Deck{Name: "Blue / White Rush", Cards: []ledger.Item{{ID: "GD01-001", Count: 4}}, CreatedAt: created}
	require.NoError(t, p.CreateDeck(ctx, d))

	err := p.CreateDeck(ctx, d)
	assert.True(t, apperrors.IsValidation(err))

	got, err := p.GetDeck(ctx, "Blue / White Rush")
	require.NoError(t, err)
	assert.Equal(t, d.Cards, got.Cards)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, "/auth/users/decks/Blue%20%2F%20White%20Rush", f.lastPath)

	renamed := got
	renamed.Name = "Rush"
	require.NoError(t, p.UpdateDeck(ctx, "Blue / White Rush", renamed))

	_, err = p.GetDeck(ctx, "Blue / White Rush")
	assert.True(t, apperrors.IsNotFound(err))

	list, err := p.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Rush", list[0].Name)

	require.NoError(t, p.DeleteDeck(ctx, "Rush"))
	assert.True(t, apperrors.IsNotFound(p.DeleteDeck(ctx, "Rush")))
}

func TestShareCreateAndResolve(t *testing.T) {
	f := newFakeAPI()
	f.collection = []ledger.Item{{ID: "A", Count: 3}}
	srv := f.server(t)
	ctx := context.Background()

	id, err := NewShare(srv.URL, srv.Client(), owner).CreateOrGetShareID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-42", id)

	// resolving is public
	public := NewShare(srv.URL, srv.Client(), session.Anonymous)
	snap, err := public.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "s-42", snap.ShareID)
	assert.Equal(t, []ledger.Item{{ID: "A", Count: 3}}, snap.Cards)

	_, err = public.CreateOrGetShareID(ctx)
	assert.True(t, apperrors.IsAuth(err))
}

func TestShareResolveMissing(t *testing.T) {
	srv := newFakeAPI().server(t)
	s := NewShare(srv.URL, srv.Client(), session.Anonymous)
	ctx := context.Background()

	for _, id := range []string{"unknown", "expired", " "} {
		_, err := s.Resolve(ctx, id)
		assert.True(t, apperrors.IsNotFound(err), id)
	}
}

func TestAccountDecodesDeckTimestamps(t *testing.T) {
	var a Account
	require.NoError(t, json.Unmarshal([]byte(`{"collection":[],"decks":[{"name":"x","cards":[],"created_at":"2025-01-02T03:04:05Z"}]}`), &a))
	require.Len(t, a.Decks, 1)
	assert.Equal(t, 2025, a.Decks[0].CreatedAt.Year())
}
