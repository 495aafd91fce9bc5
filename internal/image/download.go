package imagepkg

import (
	"bytes"
	"context"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/enrich"
	"github.com/evade6ix/gundamwebsite/internal/logging"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

// DownloadImage fetches url and decodes it.
func DownloadImage(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	b, err := util.GetBytes(ctx, client, url)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, apperrors.Transport("decode "+url, err)
	}
	return img, nil
}

// DownloadAll fetches urls with at most limit requests in flight. Failed or
// empty urls leave a nil image at their index.
func DownloadAll(ctx context.Context, client *http.Client, urls []string, limit int, logger *zap.Logger) []image.Image {
	logger = logging.OrNop(logger)
	out := make([]image.Image, len(urls))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, u := range urls {
		if u == "" {
			continue
		}
		g.Go(func() error {
			img, err := DownloadImage(ctx, client, u)
			if err != nil {
				logger.Warn("card image download failed", zap.String("url", u), zap.Error(err))
				return nil
			}
			out[i] = img
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Tiles downloads the image of every entry and pairs it with its count.
func Tiles(ctx context.Context, client *http.Client, es []enrich.Entry, limit int, logger *zap.Logger) []Tile {
	urls := make([]string, len(es))
	for i, e := range es {
		urls[i] = e.Card.ImageURL()
	}
	imgs := DownloadAll(ctx, client, urls, limit, logger)
	tiles := make([]Tile, len(es))
	for i, e := range es {
		tiles[i] = Tile{Image: imgs[i], Count: e.Count}
	}
	return tiles
}
