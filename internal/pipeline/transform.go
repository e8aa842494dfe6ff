package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// WindTransformer implements Transformer: merge the tables, derive absolute
// power, then drop per-source Tukey outliers on the screened fields.
type WindTransformer struct {
	fields []domain.Field
	logger *slog.Logger
}

// NewTransformer creates a WindTransformer screening fields. A nil slice
// screens domain.DefaultScreenedFields.
func NewTransformer(fields []domain.Field, logger *slog.Logger) *WindTransformer {
	if fields == nil {
		fields = domain.DefaultScreenedFields
	}
	return &WindTransformer{
		fields: fields,
		logger: logger,
	}
}

func (t *WindTransformer) Transform(ctx context.Context, tables []domain.TurbineTable) (domain.FilterResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.FilterResult{}, err
	}

	merged := domain.Merge(tables)
	normalized, err := domain.NormalizeAll(merged)
	if err != nil {
		return domain.FilterResult{}, fmt.Errorf("normalize power: %w", err)
	}

	result, err := domain.FilterOutliers(normalized, t.fields, t.logger)
	if err != nil {
		return domain.FilterResult{}, fmt.Errorf("filter outliers: %w", err)
	}

	for _, src := range domain.Sources {
		fences, ok := result.Fences[src]
		if !ok {
			continue
		}
		t.logger.Info("outlier filter applied",
			"source", src.String(),
			"removed", result.Removed[src],
			"fences", len(fences),
		)
	}
	if result.DroppedMissing > 0 {
		t.logger.Warn("readings with missing screened values dropped", "count", result.DroppedMissing)
	}
	return result, nil
}
