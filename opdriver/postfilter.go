package opdriver

import (
	"context"

	"github.com/cockroachdb/idxexec/exprtree"
	"github.com/cockroachdb/idxexec/rowdata"
)

// Postfilter is the offset/limit + post-predicate gate between per-tuple
// production and emission (spec.md §4.5). It is stateful: Eval consumes the
// plan's OFFSET before counting against LIMIT, and only tuples that pass the
// optional predicate are considered at all, matching the §8 law
// output = drop(offset, accepted).take(limit).
type Postfilter struct {
	predicate exprtree.Expression

	offsetLeft int
	limitLeft  int
	unbounded  bool
}

// NewPostfilter builds a Postfilter. offset <= 0 means no rows are skipped;
// limit < 0 means unbounded.
func NewPostfilter(predicate exprtree.Expression, offset, limit int) *Postfilter {
	pf := &Postfilter{predicate: predicate}
	if offset > 0 {
		pf.offsetLeft = offset
	}
	if limit < 0 {
		pf.unbounded = true
	} else {
		pf.limitLeft = limit
	}
	return pf
}

// UnderLimit reports whether the postfilter can still accept more rows. A
// driver's main loop should stop pulling tuples once this goes false.
func (p *Postfilter) UnderLimit() bool {
	return p.unbounded || p.limitLeft > 0
}

// Eval evaluates the optional predicate against (outer, inner) and, if it
// passes (or there is no predicate), consumes offset/limit accounting. It
// returns true exactly for tuples the driver should emit.
func (p *Postfilter) Eval(ctx context.Context, outer, inner rowdata.Tuple) (bool, error) {
	if p.predicate != nil {
		v, err := p.predicate.Eval(ctx, outer, inner)
		if err != nil {
			return false, err
		}
		if !v.IsTrue() {
			return false, nil
		}
	}
	return p.accept(), nil
}

func (p *Postfilter) accept() bool {
	if p.offsetLeft > 0 {
		p.offsetLeft--
		return false
	}
	if !p.unbounded {
		if p.limitLeft <= 0 {
			return false
		}
		p.limitLeft--
	}
	return true
}
