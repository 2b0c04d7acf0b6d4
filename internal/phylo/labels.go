package phylo

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field names understood by LabelFormat.
const (
	FieldSubject = "PATID"
	FieldDate    = "COLDATE"
)

// LabelFormat describes how a tip label encodes its subject and collection
// date, e.g. "P017_2009-03-14" with Fields {PATID, COLDATE} and Separator "_".
type LabelFormat struct {
	Fields     []string
	Separator  string
	DateLayout string // time.Parse layout for the COLDATE field
}

// DefaultLabelFormat returns the PATID_COLDATE format with ISO dates.
func DefaultLabelFormat() LabelFormat {
	return LabelFormat{
		Fields:     []string{FieldSubject, FieldDate},
		Separator:  "_",
		DateLayout: "2006-01-02",
	}
}

// TipInfo is what a tip label says about its sample.
type TipInfo struct {
	Name      string
	Subject   string
	Collected time.Time
}

// Parse splits label according to f. Labels may carry more tokens than
// Fields names; extra tokens are ignored. Both the subject and the
// collection date must be present and valid.
func (f LabelFormat) Parse(label string) (TipInfo, error) {
	return f.parse(label, true)
}

// ParseSubject is Parse with an optional collection date: a missing or
// unparseable date leaves Collected zero. Only the subject is required.
func (f LabelFormat) ParseSubject(label string) (TipInfo, error) {
	return f.parse(label, false)
}

func (f LabelFormat) parse(label string, requireDate bool) (TipInfo, error) {
	subjIdx, dateIdx := f.index(FieldSubject), f.index(FieldDate)
	if subjIdx < 0 || (requireDate && dateIdx < 0) {
		return TipInfo{}, fmt.Errorf("%w: format needs %s and %s fields, have %v", ErrInvalidLabel, FieldSubject, FieldDate, f.Fields)
	}
	sep := f.Separator
	if sep == "" {
		sep = "_"
	}
	tokens := strings.Split(label, sep)
	want := subjIdx
	if requireDate {
		want = max(subjIdx, dateIdx)
	}
	if len(tokens) <= want {
		return TipInfo{}, fmt.Errorf("%w: %q has %d fields, want at least %d", ErrInvalidLabel, label, len(tokens), want+1)
	}
	subject := tokens[subjIdx]
	if subject == "" {
		return TipInfo{}, fmt.Errorf("%w: %q has an empty %s", ErrInvalidLabel, label, FieldSubject)
	}
	info := TipInfo{Name: label, Subject: subject}
	if dateIdx < 0 || dateIdx >= len(tokens) {
		return info, nil
	}
	layout := f.DateLayout
	if layout == "" {
		layout = "2006-01-02"
	}
	collected, err := time.Parse(layout, tokens[dateIdx])
	if err != nil {
		if requireDate {
			return TipInfo{}, fmt.Errorf("%w: %q: %s: %v", ErrInvalidLabel, label, FieldDate, err)
		}
		return info, nil
	}
	info.Collected = collected
	return info, nil
}

func (f LabelFormat) index(field string) int {
	for i, name := range f.Fields {
		if strings.EqualFold(name, field) {
			return i
		}
	}
	return -1
}

// Subject groups the tips of one patient. Tips are ordered by collection
// date, earliest first; ties keep tree order. Undated tips come last.
type Subject struct {
	ID   string
	Tips []NodeID
	Info []TipInfo // parallel to Tips
}

// Representative returns the subject's earliest-collected tip.
func (s Subject) Representative() NodeID { return s.Tips[0] }

// MedianDate returns the median collection date over dated tips, or the zero
// time when none is dated. For an even count it is the midpoint of the two
// middle dates, truncated to whole days.
func (s Subject) MedianDate() time.Time {
	n := 0
	for n < len(s.Info) && !s.Info[n].Collected.IsZero() {
		n++
	}
	if n == 0 {
		return time.Time{}
	}
	if n%2 == 1 {
		return s.Info[n/2].Collected
	}
	a, b := s.Info[n/2-1].Collected, s.Info[n/2].Collected
	return a.Add(b.Sub(a) / 2).Truncate(24 * time.Hour)
}

// SubjectSummary is the per-subject line of a subject-level report.
type SubjectSummary struct {
	ID         string    `json:"id"`
	Tips       int       `json:"tips"`
	MedianDate time.Time `json:"medianDate,omitzero"`
}

// Summary returns the tip count and median collection date of s.
func (s Subject) Summary() SubjectSummary {
	return SubjectSummary{ID: s.ID, Tips: len(s.Tips), MedianDate: s.MedianDate()}
}

// GroupSubjects parses every leaf label of t and groups leaves by subject.
// Every label must carry a valid date. Subjects are returned in order of
// first appearance among the leaves.
func GroupSubjects(t *Tree, format LabelFormat) ([]Subject, error) {
	return groupSubjects(t, format.Parse)
}

// GroupSubjectsByID is GroupSubjects with optional dates; see ParseSubject.
func GroupSubjectsByID(t *Tree, format LabelFormat) ([]Subject, error) {
	return groupSubjects(t, format.ParseSubject)
}

func groupSubjects(t *Tree, parse func(string) (TipInfo, error)) ([]Subject, error) {
	index := make(map[string]int)
	var subjects []Subject
	for _, leaf := range t.leaves {
		info, err := parse(t.nodes[leaf].Name)
		if err != nil {
			return nil, err
		}
		i, ok := index[info.Subject]
		if !ok {
			i = len(subjects)
			index[info.Subject] = i
			subjects = append(subjects, Subject{ID: info.Subject})
		}
		subjects[i].Tips = append(subjects[i].Tips, leaf)
		subjects[i].Info = append(subjects[i].Info, info)
	}
	for i := range subjects {
		sortByDate(&subjects[i])
	}
	return subjects, nil
}

func sortByDate(s *Subject) {
	order := make([]int, len(s.Tips))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := s.Info[order[a]].Collected, s.Info[order[b]].Collected
		if da.IsZero() || db.IsZero() {
			return !da.IsZero() && db.IsZero()
		}
		return da.Before(db)
	})
	tips := make([]NodeID, len(order))
	info := make([]TipInfo, len(order))
	for i, o := range order {
		tips[i] = s.Tips[o]
		info[i] = s.Info[o]
	}
	s.Tips, s.Info = tips, info
}
