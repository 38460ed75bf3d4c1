package generate

import (
	"context"
	"fmt"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// export renders doc in every configured format and saves each rendition.
// Renditions run concurrently and are joined before returning; files come
// back in format order.
func (g *Generator) export(ctx context.Context, doc ports.Document, name string) ([]domain.StoredFile, error) {
	files := make([]domain.StoredFile, len(g.formats))
	eg, ctx := errgroup.WithContext(ctx)
	if g.workers > 0 {
		eg.SetLimit(g.workers)
	}

	for i, format := range g.formats {
		eg.Go(func() error {
			data, err := doc.SaveAs(format)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			stored, err := g.storage.Save(ctx, name+"."+string(format), format, data)
			if err != nil {
				return fmt.Errorf("save %s: %w", format, err)
			}
			files[i] = stored
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
