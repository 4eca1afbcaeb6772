package company

import (
	"cmp"
	"context"
	"slices"

	"dividend-backend/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

// names scoring below this are too different to be worth suggesting
const suggestThreshold = 0.8

type scoredName struct {
	name  string
	score float64
}

// rankNames returns the candidates most similar to name by Jaro-Winkler
// similarity, best first.
func rankNames(name string, candidates []string, limit int) []string {
	target := textutil.NormalizeName(name)
	if target == "" {
		return []string{}
	}

	var scored []scoredName
	for _, candidate := range candidates {
		score := matchr.JaroWinkler(target, textutil.NormalizeName(candidate), false)
		if score < suggestThreshold {
			continue
		}
		scored = append(scored, scoredName{name: candidate, score: score})
	}
	slices.SortFunc(scored, func(a, b scoredName) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(limit, len(scored)))
	for _, s := range scored {
		if len(out) >= limit {
			break
		}
		out = append(out, s.name)
	}
	return out
}

// Suggest returns up to limit registered company names that look like name,
// it is used for "did you mean" hints.
func (s Service) Suggest(ctx context.Context, name string, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Suggest")
	defer span.End()

	names, err := s.qry.ListCompanyNames(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rankNames(name, names, clampLimit(limit)), nil
}
