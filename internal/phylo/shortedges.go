package phylo

import (
	"context"
	"math"
	"sort"
	"time"
)

// tieTolerance is the distance difference below which two candidates count
// as tied at the minimum. Path sums taken in different orders can differ in
// the last bits.
const tieTolerance = 1e-12

// ShortEdgeOptions selects what FindShortEdges keeps for each subject.
type ShortEdgeOptions struct {
	Cutoff float64
	// Minimize keeps only the nearest other-subject tip(s). Without it every
	// other-subject tip within Cutoff is kept.
	Minimize bool
	// KeepTies keeps every tip tied at the minimum distance instead of the
	// first one found. Only consulted with Minimize.
	KeepTies bool
}

// ShortEdge links a subject's representative (earliest) tip to a tip of
// another subject.
type ShortEdge struct {
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	SourceSubject string  `json:"sourceSubject"`
	TargetSubject string  `json:"targetSubject"`
	Distance      float64 `json:"distance"`
	// Tied is set when the edge shares the subject's minimum distance with
	// at least one other kept edge.
	Tied bool `json:"tied"`
}

// FindShortEdges walks the trunk from each subject's earliest-collected tip
// and keeps edges to tips of other subjects, per opts. Subjects come from the
// Clusterer's LabelFormat; every leaf label must parse. Edges are grouped by
// subject in order of first appearance in the tree.
func (c *Clusterer) FindShortEdges(ctx context.Context, opts ShortEdgeOptions) ([]ShortEdge, error) {
	if err := ValidateCutoff(opts.Cutoff); err != nil {
		return nil, err
	}
	start := time.Now()

	subjects, err := GroupSubjects(c.tree, c.labels)
	if err != nil {
		return nil, err
	}
	subjectOf := subjectIndex(subjects)

	reps := make([]NodeID, len(subjects))
	for i, s := range subjects {
		reps[i] = s.Representative()
	}
	perRep, err := c.fanOut(ctx, modeShortEdges, reps, func(origin NodeID) ([]Neighbor, error) {
		return c.walker.WalkTrunk(origin, opts.Cutoff)
	})
	if err != nil {
		return nil, err
	}

	var out []ShortEdge
	for i, s := range subjects {
		var candidates []Neighbor
		for _, nb := range perRep[i] {
			if subjectOf[nb.Leaf] == i {
				continue
			}
			candidates = append(candidates, nb)
		}
		src := c.tree.nodes[s.Representative()].Name
		for _, sel := range selectShortEdges(candidates, opts) {
			out = append(out, ShortEdge{
				Source:        src,
				Target:        c.tree.nodes[sel.Leaf].Name,
				SourceSubject: s.ID,
				TargetSubject: subjects[subjectOf[sel.Leaf]].ID,
				Distance:      sel.Distance,
				Tied:          sel.tied,
			})
		}
	}

	edgesEmitted.WithLabelValues(modeShortEdges).Add(float64(len(out)))
	clusterDuration.WithLabelValues(modeShortEdges).Observe(time.Since(start).Seconds())
	c.logger.Debug("short edges complete",
		"subjects", len(subjects),
		"cutoff", opts.Cutoff,
		"minimize", opts.Minimize,
		"keepTies", opts.KeepTies,
		"edges", len(out))
	return out, nil
}

type selected struct {
	Neighbor
	tied bool
}

func selectShortEdges(candidates []Neighbor, opts ShortEdgeOptions) []selected {
	if len(candidates) == 0 {
		return nil
	}
	if !opts.Minimize {
		out := make([]selected, len(candidates))
		for i, nb := range candidates {
			out[i] = selected{Neighbor: nb}
		}
		return out
	}

	minDist := math.Inf(1)
	for _, nb := range candidates {
		minDist = math.Min(minDist, nb.Distance)
	}
	var ties []Neighbor
	for _, nb := range candidates {
		if nb.Distance-minDist <= tieTolerance {
			ties = append(ties, nb)
		}
	}
	if !opts.KeepTies {
		return []selected{{Neighbor: ties[0]}}
	}
	out := make([]selected, len(ties))
	for i, nb := range ties {
		out[i] = selected{Neighbor: nb, tied: len(ties) > 1}
	}
	return out
}

// SubjectLink is the shortest tip-to-tip distance between two subjects.
type SubjectLink struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Distance float64 `json:"distance"`
}

// SubjectLinks reports, for every pair of subjects with any tips closer than
// cutoff, the minimum distance over those tip pairs. Each pair appears once
// with A before B in subject order; links are sorted by A, then distance.
// Only the subject field of each label is required.
func (c *Clusterer) SubjectLinks(ctx context.Context, cutoff float64) ([]SubjectLink, error) {
	if err := ValidateCutoff(cutoff); err != nil {
		return nil, err
	}
	start := time.Now()

	subjects, err := GroupSubjectsByID(c.tree, c.labels)
	if err != nil {
		return nil, err
	}
	subjectOf := subjectIndex(subjects)

	leaves := c.tree.leaves
	perLeaf, err := c.fanOut(ctx, modeSubjectLinks, leaves, func(origin NodeID) ([]Neighbor, error) {
		return c.walker.WalkTrunk(origin, cutoff)
	})
	if err != nil {
		return nil, err
	}

	type pair struct{ a, b int }
	best := make(map[pair]float64)
	for i, neighbors := range perLeaf {
		si := subjectOf[leaves[i]]
		for _, nb := range neighbors {
			sj := subjectOf[nb.Leaf]
			if si == sj {
				continue
			}
			k := pair{min(si, sj), max(si, sj)}
			if d, ok := best[k]; !ok || nb.Distance < d {
				best[k] = nb.Distance
			}
		}
	}

	keys := make([]pair, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		if best[keys[i]] != best[keys[j]] {
			return best[keys[i]] < best[keys[j]]
		}
		return keys[i].b < keys[j].b
	})
	out := make([]SubjectLink, len(keys))
	for i, k := range keys {
		out[i] = SubjectLink{A: subjects[k.a].ID, B: subjects[k.b].ID, Distance: best[k]}
	}

	edgesEmitted.WithLabelValues(modeSubjectLinks).Add(float64(len(out)))
	clusterDuration.WithLabelValues(modeSubjectLinks).Observe(time.Since(start).Seconds())
	return out, nil
}

// subjectIndex maps every tip to the index of its subject.
func subjectIndex(subjects []Subject) map[NodeID]int {
	idx := make(map[NodeID]int)
	for i, s := range subjects {
		for _, tip := range s.Tips {
			idx[tip] = i
		}
	}
	return idx
}

// SubjectSummaries returns the tip count and median collection date of every
// subject, in order of first appearance. Undated tips count but do not move
// the median.
func (c *Clusterer) SubjectSummaries() ([]SubjectSummary, error) {
	subjects, err := GroupSubjectsByID(c.tree, c.labels)
	if err != nil {
		return nil, err
	}
	out := make([]SubjectSummary, len(subjects))
	for i, s := range subjects {
		out[i] = s.Summary()
	}
	return out, nil
}
