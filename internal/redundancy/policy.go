// Package redundancy translates a partial redundancy spec into the
// complete, VCH-valid parameter set the Work Launcher passes to
// create_work. It is grounded directly on original_source's
// low_level/redundancy.py CreateOptions, ported field for field.
package redundancy

import (
	"fmt"

	"github.com/sermir2003/stoilo/internal/domain"
)

// Options is the partial, user-supplied redundancy spec. A nil field
// pointer means "use the default"; this mirrors the Python source's use
// of Optional[int] defaulting.
type Options struct {
	MinQuorum         *int32
	TargetNResults    *int32
	MaxErrorResults   *int32
	MaxTotalResults   *int32
	MaxSuccessResults *int32
	DelayBound        *int32
}

const (
	defaultMinQuorum       int32 = 2
	defaultMaxTotalResults int32 = 3
	defaultDelayBound      int32 = 300
)

// CreateOptions normalizes a partial Options into a complete
// domain.RedundancyOptions, applying the same defaulting rules as
// original_source's CreateOptions. It returns an error iff an explicit
// target_nresults is below min_quorum — every other field always has a
// well-defined default.
func CreateOptions(o Options) (domain.RedundancyOptions, error) {
	minQuorum := defaultMinQuorum
	if o.MinQuorum != nil {
		minQuorum = *o.MinQuorum
	}

	targetNResults := minQuorum
	if o.TargetNResults != nil {
		targetNResults = *o.TargetNResults
		if targetNResults < minQuorum {
			return domain.RedundancyOptions{}, fmt.Errorf(
				"target_nresults must be at least min_quorum, got %d and %d",
				targetNResults, minQuorum)
		}
	}

	maxTotalResults := defaultMaxTotalResults
	if o.MaxTotalResults != nil {
		maxTotalResults = *o.MaxTotalResults
	}

	var maxErrorResults int32
	if o.MaxErrorResults != nil {
		maxErrorResults = *o.MaxErrorResults
	} else {
		// Otherwise it is impossible to collect a strict majority from min_quorum.
		maxErrorResults = maxTotalResults - (minQuorum/2 + 1)
	}
	if maxErrorResults == 0 {
		// 0 is not allowed by the VCH.
		maxErrorResults = 1
	}

	maxSuccessResults := maxTotalResults
	if o.MaxSuccessResults != nil {
		maxSuccessResults = *o.MaxSuccessResults
	}

	delayBound := defaultDelayBound
	if o.DelayBound != nil {
		delayBound = *o.DelayBound
	}

	return domain.RedundancyOptions{
		MinQuorum:         minQuorum,
		TargetNResults:    targetNResults,
		MaxErrorResults:   maxErrorResults,
		MaxTotalResults:   maxTotalResults,
		MaxSuccessResults: maxSuccessResults,
		DelayBound:        delayBound,
	}, nil
}

func int32p(v int32) *int32 { return &v }

// Trivial mirrors original_source's TRIVIAL_OPTIONS: a single replica,
// no redundancy, used for single-worker scenarios such as gradient
// computation on trusted nodes.
func Trivial() domain.RedundancyOptions {
	opts, err := CreateOptions(Options{
		MinQuorum:         int32p(1),
		TargetNResults:    int32p(1),
		MaxErrorResults:   int32p(0),
		MaxTotalResults:   int32p(1),
		MaxSuccessResults: int32p(1),
	})
	if err != nil {
		// Unreachable: the literals above are internally consistent.
		panic(err)
	}
	return opts
}

// Classic mirrors original_source's CLASSIC_OPTIONS: every field at its
// default.
func Classic() domain.RedundancyOptions {
	opts, err := CreateOptions(Options{})
	if err != nil {
		panic(err)
	}
	return opts
}
