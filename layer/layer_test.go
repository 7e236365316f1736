package layer

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/crowdguess/candidate"
	"github.com/domino14/crowdguess/stats"
)

// The ten containers from the single-pass game and the twenty from the
// biased one, in the order they were listed.
var tenContainers = [][2]int{
	{10, 1}, {80, 6}, {37, 3}, {17, 1}, {31, 2},
	{90, 10}, {50, 4}, {20, 2}, {73, 4}, {89, 8},
}

var twentyContainers = [][2]int{
	{80, 6}, {50, 4}, {83, 7}, {31, 2}, {60, 4},
	{89, 8}, {10, 1}, {37, 3}, {78, 4}, {98, 10},
	{17, 1}, {40, 3}, {73, 4}, {100, 15}, {20, 2},
	{41, 3}, {79, 5}, {23, 2}, {47, 3}, {30, 2},
}

func makeCandidates(t *testing.T, pairs [][2]int) []*candidate.Candidate {
	t.Helper()
	cands := make([]*candidate.Candidate, len(pairs))
	for i, p := range pairs {
		c, err := candidate.New(i, p[0], p[1])
		require.NoError(t, err)
		cands[i] = c
	}
	return cands
}

func obs(id, mult, div, uptake, value int) Observation {
	return Observation{ID: id, Multiplier: mult, Divisor: div, Uptake: uptake, Value: value}
}

func isValueSorted(snap []Observation) bool {
	for i := 1; i < len(snap); i++ {
		if snap[i].Value > snap[i-1].Value {
			return false
		}
	}
	return true
}

func TestSingleCandidateFirstRound(t *testing.T) {
	is := is.New(t)
	l, err := New(makeCandidates(t, [][2]int{{10, 1}}))
	is.NoErr(err)
	is.Equal(l.Depth(), 0)
	is.Equal(l.Snapshot(), []Observation{obs(0, 10, 1, 0, 100000)})

	l.RunRound()
	is.Equal(l.Depth(), 1)
	is.Equal(l.Snapshot(), []Observation{obs(0, 10, 1, 38, 2564)})
}

func TestSinglePassTwoRounds(t *testing.T) {
	l, err := NewVariant(VariantSinglePass, makeCandidates(t, tenContainers))
	require.NoError(t, err)

	l.RunRound()
	assert.Equal(t, []Observation{
		obs(2, 37, 3, 0, 123333),
		obs(9, 89, 8, 0, 111250),
		obs(0, 10, 1, 0, 100000),
		obs(7, 20, 2, 0, 100000),
		obs(5, 90, 10, 0, 90000),
		obs(6, 50, 4, 4, 62500),
		obs(1, 80, 6, 8, 57142),
		obs(8, 73, 4, 38, 17380),
		obs(4, 31, 2, 18, 15500),
		obs(3, 17, 1, 30, 5483),
	}, l.Snapshot())

	top := l.Selected(DefaultSelected)
	require.Len(t, top, 2)
	assert.Equal(t, 2, top[0].ID())
	assert.Equal(t, 9, top[1].ID())

	l.RunRound()
	assert.Equal(t, []Observation{
		obs(5, 90, 10, 0, 90000),
		obs(9, 89, 8, 2, 89000),
		obs(7, 20, 2, 1, 66666),
		obs(6, 50, 4, 4, 62500),
		obs(2, 37, 3, 3, 61666),
		obs(1, 80, 6, 7, 61538),
		obs(0, 10, 1, 1, 50000),
		obs(8, 73, 4, 35, 18717),
		obs(4, 31, 2, 17, 16315),
		obs(3, 17, 1, 28, 5862),
	}, l.Snapshot())
	assert.Equal(t, 2, l.Depth())
}

func TestBiasedTwoRounds(t *testing.T) {
	l, err := NewVariant(VariantBiased, makeCandidates(t, twentyContainers))
	require.NoError(t, err)
	require.Len(t, l.Passes(), 3)

	l.RunRound()
	assert.Equal(t, []Observation{
		obs(3, 31, 2, 0, 155000),
		obs(19, 30, 2, 0, 150000),
		obs(15, 41, 3, 0, 136666),
		obs(11, 40, 3, 0, 133333),
		obs(7, 37, 3, 0, 123333),
	}, l.Snapshot()[:5])

	l.RunRound()
	assert.Equal(t, []Observation{
		obs(7, 37, 3, 0, 123333),
		obs(4, 60, 4, 1, 120000),
		obs(18, 47, 3, 1, 117500),
		obs(15, 41, 3, 1, 102500),
		obs(19, 30, 2, 1, 100000),
		obs(11, 40, 3, 1, 100000),
		obs(1, 50, 4, 1, 100000),
		obs(3, 31, 2, 2, 77500),
		obs(0, 80, 6, 5, 72727),
		obs(16, 79, 5, 6, 71818),
		obs(17, 23, 2, 2, 57500),
		obs(5, 89, 8, 8, 55625),
		obs(2, 83, 7, 8, 55333),
		obs(9, 98, 10, 10, 49000),
		obs(12, 73, 4, 11, 48666),
		obs(8, 78, 4, 14, 43333),
		obs(14, 20, 2, 3, 40000),
		obs(13, 100, 15, 11, 38461),
		obs(10, 17, 1, 9, 17000),
		obs(6, 10, 1, 6, 14285),
	}, l.Snapshot())
}

func TestPassOrderMatters(t *testing.T) {
	is := is.New(t)
	biased, err := NewVariant(VariantBiased, makeCandidates(t, twentyContainers))
	is.NoErr(err)
	swapped, err := New(makeCandidates(t, twentyContainers),
		InverseMultiplierPass(), MultiplierPass(), ValuePass())
	is.NoErr(err)
	for i := 0; i < 2; i++ {
		biased.RunRound()
		swapped.RunRound()
	}
	is.True(biased.Fingerprint() != swapped.Fingerprint())
}

func TestDepthIncrementsByOne(t *testing.T) {
	is := is.New(t)
	for _, v := range []Variant{VariantSinglePass, VariantBiased} {
		l, err := NewVariant(v, makeCandidates(t, twentyContainers))
		is.NoErr(err)
		for n := 1; n <= 12; n++ {
			l.RunRound()
			is.Equal(l.Depth(), n)
		}
	}
}

func TestSortedAfterEveryRound(t *testing.T) {
	is := is.New(t)
	for _, v := range []Variant{VariantSinglePass, VariantBiased} {
		l, err := NewVariant(v, makeCandidates(t, twentyContainers))
		is.NoErr(err)
		is.True(isValueSorted(l.Snapshot()))
		for n := 0; n < 15; n++ {
			l.RunRound()
			is.True(isValueSorted(l.Snapshot()))
		}
	}
}

func TestDeterministic(t *testing.T) {
	is := is.New(t)
	a, err := NewVariant(VariantBiased, makeCandidates(t, twentyContainers))
	is.NoErr(err)
	b, err := NewVariant(VariantBiased, makeCandidates(t, twentyContainers))
	is.NoErr(err)
	is.Equal(a.Fingerprint(), b.Fingerprint())
	for n := 0; n < 6; n++ {
		a.RunRound()
		b.RunRound()
		is.Equal(a.Snapshot(), b.Snapshot())
		is.Equal(a.Fingerprint(), b.Fingerprint())
	}
}

func TestReadsDoNotMutate(t *testing.T) {
	is := is.New(t)
	l, err := NewVariant(VariantBiased, makeCandidates(t, twentyContainers))
	is.NoErr(err)
	l.RunRound()

	fp := l.Fingerprint()
	snap := l.Snapshot()
	sel := l.Selected(2)
	is.Equal(l.Snapshot(), snap)
	is.Equal(l.Selected(2), sel)
	is.Equal(l.Fingerprint(), fp)
	is.Equal(l.Depth(), 1)
}

func TestSelected(t *testing.T) {
	is := is.New(t)
	l, err := New(makeCandidates(t, tenContainers))
	is.NoErr(err)
	is.Equal(len(l.Selected(2)), 2)
	is.Equal(len(l.Selected(25)), 10)
	is.Equal(len(l.Selected(0)), 0)
	is.Equal(len(l.Selected(-3)), 0)

	// Returned slice is a copy.
	sel := l.Selected(3)
	is.Equal(sel[0].ID(), 8)
	sel[0] = sel[2]
	is.Equal(l.Selected(3)[0].ID(), 8)

	single, err := New(makeCandidates(t, [][2]int{{10, 1}}))
	is.NoErr(err)
	is.Equal(len(single.Selected(DefaultSelected)), 1)
}

func TestRankedViewLeavesInputAlone(t *testing.T) {
	is := is.New(t)
	cands := makeCandidates(t, tenContainers)
	before := make([]*candidate.Candidate, len(cands))
	copy(before, cands)

	asc := rankedView(cands, ByMultiplier, true)
	is.Equal(cands, before)
	for i := 1; i < len(asc); i++ {
		is.True(asc[i].Multiplier() >= asc[i-1].Multiplier())
	}
	desc := rankedView(cands, ByMultiplier, false)
	is.Equal(desc[0].Multiplier(), 90)
	is.Equal(desc[len(desc)-1].Multiplier(), 10)
}

func TestRankedViewTiesKeepOrder(t *testing.T) {
	is := is.New(t)
	// Three candidates, all worth 100000.
	cands := makeCandidates(t, [][2]int{{10, 1}, {20, 2}, {30, 3}})
	view := rankedView(cands, ByValue, false)
	is.Equal(view[0].ID(), 0)
	is.Equal(view[1].ID(), 1)
	is.Equal(view[2].ID(), 2)
}

func TestRunUntilStable(t *testing.T) {
	is := is.New(t)
	l, err := New(makeCandidates(t, tenContainers))
	is.NoErr(err)
	rounds, stable := l.RunUntilStable(200)
	is.True(stable)
	is.Equal(rounds, 23)
	is.Equal(l.Depth(), 23)
	is.Equal(l.Selected(1)[0].ID(), 5)

	fp := l.Fingerprint()
	l.RunRound()
	is.Equal(l.Fingerprint(), fp)

	m, err := New(makeCandidates(t, tenContainers))
	is.NoErr(err)
	rounds, stable = m.RunUntilStable(3)
	is.Equal(rounds, 3)
	is.True(!stable)

	rounds, stable = m.RunUntilStable(-1)
	is.Equal(rounds, 0)
	is.True(!stable)
}

func TestReset(t *testing.T) {
	is := is.New(t)
	l, err := NewVariant(VariantBiased, makeCandidates(t, twentyContainers))
	is.NoErr(err)
	fresh := l.Snapshot()
	l.RunRound()
	l.RunRound()
	l.Reset()
	is.Equal(l.Depth(), 0)
	is.Equal(l.Snapshot(), fresh)
}

func TestNewRejectsBadInput(t *testing.T) {
	cands := makeCandidates(t, tenContainers)

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoCandidates)

	bad := ValuePass()
	bad.Stddev = 0
	_, err = New(cands, bad)
	assert.ErrorIs(t, err, stats.ErrInvalidStddev)

	bad = MultiplierPass()
	bad.Stddev = -4
	_, err = New(cands, ValuePass(), bad)
	assert.ErrorIs(t, err, stats.ErrInvalidStddev)

	bad = ValuePass()
	bad.Weights = nil
	_, err = New(cands, bad)
	assert.ErrorIs(t, err, ErrNoWeights)

	bad = ValuePass()
	bad.Weights = func(int) Weights { return Weights{Fresh: 0.7, Prior: 0.7} }
	_, err = New(cands, bad)
	assert.True(t, errors.Is(err, ErrInvalidWeights))

	bad.Weights = FixedWeights(1.5)
	_, err = New(cands, bad)
	assert.True(t, errors.Is(err, ErrInvalidWeights))
}
