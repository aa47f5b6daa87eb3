package redundancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sermir2003/stoilo/internal/domain"
)

func TestCreateOptionsAllDefaults(t *testing.T) {
	opts, err := CreateOptions(Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.RedundancyOptions{
		MinQuorum:         2,
		TargetNResults:    2,
		MaxErrorResults:   1,
		MaxTotalResults:   3,
		MaxSuccessResults: 3,
		DelayBound:        300,
	}, opts)
}

func TestCreateOptionsTargetDefaultsToMinQuorum(t *testing.T) {
	opts, err := CreateOptions(Options{MinQuorum: int32p(4)})
	require.NoError(t, err)
	assert.Equal(t, int32(4), opts.MinQuorum)
	assert.Equal(t, int32(4), opts.TargetNResults)
}

func TestCreateOptionsTargetBelowMinQuorumRejected(t *testing.T) {
	_, err := CreateOptions(Options{MinQuorum: int32p(3), TargetNResults: int32p(2)})
	assert.Error(t, err)
}

func TestCreateOptionsMaxErrorResultsZeroBumpedToOne(t *testing.T) {
	// min_quorum=2, max_total_results=2 -> 2 - (2/2+1) = 0, must bump to 1.
	opts, err := CreateOptions(Options{MinQuorum: int32p(2), MaxTotalResults: int32p(2)})
	require.NoError(t, err)
	assert.Equal(t, int32(1), opts.MaxErrorResults)
}

func TestCreateOptionsMaxErrorResultsDerivedFromQuorum(t *testing.T) {
	// min_quorum=3, max_total_results=5 -> 5 - (3/2+1) = 3.
	opts, err := CreateOptions(Options{MinQuorum: int32p(3), MaxTotalResults: int32p(5)})
	require.NoError(t, err)
	assert.Equal(t, int32(3), opts.MaxErrorResults)
}

func TestCreateOptionsExplicitMaxErrorResultsZeroBumped(t *testing.T) {
	opts, err := CreateOptions(Options{MaxErrorResults: int32p(0)})
	require.NoError(t, err)
	assert.Equal(t, int32(1), opts.MaxErrorResults, "an explicit 0 is still disallowed by the VCH")
}

func TestCreateOptionsMaxSuccessResultsDefaultsToMaxTotalResults(t *testing.T) {
	opts, err := CreateOptions(Options{MaxTotalResults: int32p(7)})
	require.NoError(t, err)
	assert.Equal(t, int32(7), opts.MaxSuccessResults)
}

func TestCreateOptionsAllFieldsExplicit(t *testing.T) {
	opts, err := CreateOptions(Options{
		MinQuorum:         int32p(5),
		TargetNResults:    int32p(6),
		MaxErrorResults:   int32p(2),
		MaxTotalResults:   int32p(8),
		MaxSuccessResults: int32p(6),
		DelayBound:        int32p(600),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RedundancyOptions{
		MinQuorum:         5,
		TargetNResults:    6,
		MaxErrorResults:   2,
		MaxTotalResults:   8,
		MaxSuccessResults: 6,
		DelayBound:        600,
	}, opts)
}

func TestTrivial(t *testing.T) {
	opts := Trivial()
	assert.Equal(t, domain.RedundancyOptions{
		MinQuorum:         1,
		TargetNResults:    1,
		MaxErrorResults:   1,
		MaxTotalResults:   1,
		MaxSuccessResults: 1,
		DelayBound:        300,
	}, opts)
}

func TestClassic(t *testing.T) {
	opts := Classic()
	assert.Equal(t, domain.RedundancyOptions{
		MinQuorum:         2,
		TargetNResults:    2,
		MaxErrorResults:   1,
		MaxTotalResults:   3,
		MaxSuccessResults: 3,
		DelayBound:        300,
	}, opts)
}
