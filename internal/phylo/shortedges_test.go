package phylo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoSubjectTree:
//
//	((P1_2010-01-01:0.01,P2_2011-01-01:0.02):0.01,(P1_2012-01-01:0.01,P2_2009-01-01:0.03):0.01);
//
// P1's earliest tip is P1_2010-01-01, P2's is P2_2009-01-01.
func twoSubjectTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := ParseNewickString("((P1_2010-01-01:0.01,P2_2011-01-01:0.02):0.01,(P1_2012-01-01:0.01,P2_2009-01-01:0.03):0.01);")
	require.NoError(t, err)
	return tree
}

func TestFindShortEdges_MinimizeNoTies(t *testing.T) {
	c := newClusterer(t, twoSubjectTree(t))

	got, err := c.FindShortEdges(context.Background(), ShortEdgeOptions{
		Cutoff:   0.1,
		Minimize: true,
		KeepTies: false,
	})
	require.NoError(t, err)
	require.Len(t, got, 2, "one edge per subject")

	assert.Equal(t, "P1_2010-01-01", got[0].Source)
	assert.Equal(t, "P2_2011-01-01", got[0].Target)
	assert.Equal(t, "P1", got[0].SourceSubject)
	assert.Equal(t, "P2", got[0].TargetSubject)
	assert.InDelta(t, 0.03, got[0].Distance, 1e-12)
	assert.False(t, got[0].Tied)

	assert.Equal(t, "P2_2009-01-01", got[1].Source)
	assert.Equal(t, "P1_2012-01-01", got[1].Target)
	assert.InDelta(t, 0.04, got[1].Distance, 1e-12)
}

func TestFindShortEdges_AllWithinCutoff(t *testing.T) {
	c := newClusterer(t, twoSubjectTree(t))

	got, err := c.FindShortEdges(context.Background(), ShortEdgeOptions{Cutoff: 0.1})
	require.NoError(t, err)

	// Each representative reaches both tips of the other subject; same-subject
	// tips are never candidates.
	require.Len(t, got, 4)
	for _, e := range got {
		assert.NotEqual(t, e.SourceSubject, e.TargetSubject)
		assert.False(t, e.Tied)
	}

	got, err = c.FindShortEdges(context.Background(), ShortEdgeOptions{Cutoff: 0.035})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P2_2011-01-01", got[0].Target)
}

func TestFindShortEdges_Ties(t *testing.T) {
	// S1's representative is equidistant (0.02) from S2 and S3.
	tree, err := ParseNewickString("(S1_2001-01-01:0.01,S2_2001-01-01:0.01,S3_2001-01-01:0.01,S1_2005-01-01:0.001);")
	require.NoError(t, err)
	c := newClusterer(t, tree)
	ctx := context.Background()

	got, err := c.FindShortEdges(ctx, ShortEdgeOptions{Cutoff: 1, Minimize: true, KeepTies: true})
	require.NoError(t, err)
	var fromS1 []ShortEdge
	for _, e := range got {
		if e.SourceSubject == "S1" {
			fromS1 = append(fromS1, e)
		}
	}
	require.Len(t, fromS1, 2)
	for _, e := range fromS1 {
		assert.True(t, e.Tied)
		assert.InDelta(t, 0.02, e.Distance, 1e-12)
	}

	got, err = c.FindShortEdges(ctx, ShortEdgeOptions{Cutoff: 1, Minimize: true, KeepTies: false})
	require.NoError(t, err)
	fromS1 = fromS1[:0]
	for _, e := range got {
		if e.SourceSubject == "S1" {
			fromS1 = append(fromS1, e)
		}
	}
	require.Len(t, fromS1, 1)
	assert.Equal(t, "S2_2001-01-01", fromS1[0].Target, "first found wins")
	assert.False(t, fromS1[0].Tied)
}

func TestFindShortEdges_BadLabels(t *testing.T) {
	c := newClusterer(t, workedTree(t))
	_, err := c.FindShortEdges(context.Background(), ShortEdgeOptions{Cutoff: 0.1})
	assert.ErrorIs(t, err, ErrInvalidLabel)

	_, err = c.FindShortEdges(context.Background(), ShortEdgeOptions{Cutoff: -2})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSubjectLinks(t *testing.T) {
	c := newClusterer(t, twoSubjectTree(t))

	links, err := c.SubjectLinks(context.Background(), 0.1)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, SubjectLink{A: "P1", B: "P2", Distance: links[0].Distance}, links[0])
	// Closest cross-subject pair: the siblings P1_2010-01-01 and P2_2011-01-01.
	assert.InDelta(t, 0.03, links[0].Distance, 1e-12)

	links, err = c.SubjectLinks(context.Background(), 0.02)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestSubjectLinks_UndatedTips(t *testing.T) {
	tree, err := ParseNewickString("((P1_2010-01-01:0.01,P2_NA:0.01):0.01,P1_2011-01-01:0.01);")
	require.NoError(t, err)
	c := newClusterer(t, tree)

	links, err := c.SubjectLinks(context.Background(), 0.1)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "P1", links[0].A)
	assert.Equal(t, "P2", links[0].B)
	assert.InDelta(t, 0.02, links[0].Distance, 1e-12)

	// Short edges order tips by date, so every date must parse.
	_, err = c.FindShortEdges(context.Background(), ShortEdgeOptions{Cutoff: 0.1})
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestSubjectSummaries(t *testing.T) {
	tree, err := ParseNewickString("((P1_2010-01-01:0.01,P2_NA:0.01):0.01,(P1_2011-01-01:0.01,P1_2012-01-01:0.01):0.01);")
	require.NoError(t, err)
	c := newClusterer(t, tree)

	got, err := c.SubjectSummaries()
	require.NoError(t, err)
	assert.Equal(t, []SubjectSummary{
		{ID: "P1", Tips: 3, MedianDate: date(2011, 1, 1)},
		{ID: "P2", Tips: 1},
	}, got)

	c = newClusterer(t, tree, WithLabelFormat(LabelFormat{Fields: []string{FieldDate}}))
	_, err = c.SubjectSummaries()
	assert.ErrorIs(t, err, ErrInvalidLabel, "format without a subject field")
}

func TestSelectShortEdges_Empty(t *testing.T) {
	assert.Nil(t, selectShortEdges(nil, ShortEdgeOptions{Minimize: true}))
}
