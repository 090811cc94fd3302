package block

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/predicate"
)

// Query resolves p against the builder and projects columns for every
// matching record. RowPosition yields the record index.
func (b *Builder) Query(p predicate.Predicate, columns []int) ([][]interface{}, error) {
	return query(b, p, columns, b.logger)
}

// Query resolves p against the block and projects columns for every
// matching record. Only the referenced columns are decoded.
func (r *ReadOnly) Query(p predicate.Predicate, columns []int) ([][]interface{}, error) {
	return query(r, p, columns, r.logger)
}

func query(src predicate.Source, p predicate.Predicate, columns []int, log *zap.Logger) ([][]interface{}, error) {
	timer := metrics.NewTimer("query")
	defer timer.ObserveLatency()

	rows, err := predicate.Resolve(p, src)
	if err != nil {
		outcome := string(errors.TypeOf(err))
		metrics.PredicateResolutions.WithLabelValues(outcome).Inc()
		if errors.IsFatal(err) {
			log.Error("predicate resolution failed", zap.Stringer("predicate", p), zap.Error(err))
		}
		return nil, err
	}
	metrics.PredicateResolutions.WithLabelValues(metrics.StatusSuccess).Inc()

	out, err := predicate.Project(rows, src, columns)
	if err != nil {
		return nil, err
	}
	log.Debug("resolved query",
		zap.Stringer("predicate", p),
		zap.Uint64("rows", rows.GetCardinality()))
	return out, nil
}
