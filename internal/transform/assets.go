package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/pipeline"
)

// outputPerm is the permission of files in the transform-stage directory,
// which is served as static content.
const outputPerm = 0644

// writeAssets writes every asset to dir with at most workers writes in
// flight. Assets are keyed by file name so no two writers share a path.
func writeAssets(ctx context.Context, dir string, workers int, assets map[string]model.ExtractedAsset) error {
	list := make([]model.ExtractedAsset, 0, len(assets))
	for _, a := range assets {
		list = append(list, a)
	}

	results := pipeline.Run(ctx, workers, list, func(_ context.Context, a model.ExtractedAsset) (struct{}, error) {
		return struct{}{}, writeFile(filepath.Join(dir, a.FileName()), a.Bytes)
	})
	if failed := pipeline.Errors(results); len(failed) > 0 {
		return fmt.Errorf("failed to write %s: %w", failed[0].Item.FileName(), failed[0].Err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, outputPerm) //nolint:gosec // output is public static content
}
