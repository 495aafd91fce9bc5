package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/collection"
	"github.com/evade6ix/gundamwebsite/internal/session"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

// Share provisions and resolves collection share ids. Resolve is public;
// CreateOrGetShareID needs an authenticated session.
type Share struct {
	BaseURL string
	HTTP    *http.Client
	Session session.Session
}

func NewShare(base string, hc *http.Client, s session.Session) *Share {
	if hc == nil {
		hc = util.NewHTTPClient(0)
	}
	return &Share{BaseURL: strings.TrimRight(base, "/"), HTTP: hc, Session: s}
}

func (s *Share) CreateOrGetShareID(ctx context.Context) (string, error) {
	if err := s.Session.Require(); err != nil {
		return "", err
	}
	var resp struct {
		ShareID string `json:"shareId"`
	}
	err := util.DoJSON(ctx, s.HTTP, util.Request{
		Method:        http.MethodPost,
		URL:           s.BaseURL + "/auth/collection/share",
		Authorization: s.Session.AuthorizationHeader(),
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create share id: %w", err)
	}
	if resp.ShareID == "" {
		return "", apperrors.Transport("create share id", fmt.Errorf("empty shareId in response"))
	}
	return resp.ShareID, nil
}

// Resolve fetches a share snapshot. 404 and 410 are NotFound errors.
func (s *Share) Resolve(ctx context.Context, shareID string) (collection.Snapshot, error) {
	if strings.TrimSpace(shareID) == "" {
		return collection.Snapshot{}, apperrors.NotFound("empty share id")
	}
	var snap collection.Snapshot
	err := util.DoJSON(ctx, s.HTTP, util.Request{
		Method: http.MethodGet,
		URL:    s.BaseURL + "/auth/collection/shared/" + url.PathEscape(shareID),
	}, &snap)
	if err != nil {
		return collection.Snapshot{}, err
	}
	snap.ShareID = shareID
	return snap, nil
}
