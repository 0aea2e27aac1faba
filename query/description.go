package query

import (
	"strings"
	"time"

	"github.com/manojoshi/restorm/entity"
	"github.com/manojoshi/restorm/internal"
)

// SectionKind names the query-string sections a rendered fragment can
// land in.
type SectionKind int

const (
	SectionUnknown SectionKind = iota
	SectionWhere
	SectionOrderBy
	SectionSkip
)

// Aggregate is a result reduction the remote service cannot perform
// server-side; the fetch layer applies it after the response is decoded.
type Aggregate string

const (
	AggregateFirst           Aggregate = "First"
	AggregateFirstOrDefault  Aggregate = "FirstOrDefault"
	AggregateSingle          Aggregate = "Single"
	AggregateSingleOrDefault Aggregate = "SingleOrDefault"
	AggregateCount           Aggregate = "Count"
)

// Description accumulates everything one translation produces: the
// rendered text per section, the diverted special-field values, and the
// detected client-side aggregate. It is created fresh per Translate call,
// mutated only during that traversal, and read-only afterward. It holds
// no traversal logic of its own.
type Description struct {
	schema *entity.Schema

	elementID    string
	hasElementID bool

	updatedSince    time.Time
	hasUpdatedSince bool

	aggregate Aggregate

	sections map[SectionKind]*strings.Builder
}

// NewDescription returns an empty Description. Translate creates one per
// call; external collaborators only ever read the populated result.
func NewDescription() *Description {
	return &Description{sections: make(map[SectionKind]*strings.Builder)}
}

// AppendTerm appends text to a section's accumulated string, creating the
// section if absent. Text content is not validated; the translator
// guarantees well-formedness.
func (d *Description) AppendTerm(text string, kind SectionKind) {
	sb, ok := d.sections[kind]
	if !ok {
		sb = &strings.Builder{}
		d.sections[kind] = sb
	}
	sb.WriteString(text)
}

// SetElementID records a diverted identifier/number comparison. Last
// write wins: the protocol only admits one such comparison per query.
func (d *Description) SetElementID(id string) {
	d.elementID, d.hasElementID = id, true
}

// SetUpdatedSince records a diverted last-modified comparison. Last
// write wins.
func (d *Description) SetUpdatedSince(t time.Time) {
	d.updatedSince, d.hasUpdatedSince = t, true
}

// SetAggregate records the client-side aggregate. Setting the same value
// again is a no-op; a different value is a translation error.
func (d *Description) SetAggregate(a Aggregate) error {
	if d.aggregate != "" && d.aggregate != a {
		return &MultipleAggregatesError{Existing: d.aggregate, Requested: a}
	}
	d.aggregate = a
	return nil
}

func (d *Description) setSchema(s *entity.Schema) { d.schema = s }

// Schema is the element metadata captured from the queryable root, nil
// when the tree carried none.
func (d *Description) Schema() *entity.Schema { return d.schema }

// Section returns a section's accumulated text ("" when empty).
func (d *Description) Section(kind SectionKind) string {
	if sb, ok := d.sections[kind]; ok {
		return sb.String()
	}
	return ""
}

// ElementID reports the diverted identifier value, if any.
func (d *Description) ElementID() (string, bool) { return d.elementID, d.hasElementID }

// UpdatedSince reports the diverted last-modified bound, if any.
func (d *Description) UpdatedSince() (time.Time, bool) {
	return d.updatedSince, d.hasUpdatedSince
}

// Aggregate reports the recorded client-side aggregate ("" when none).
func (d *Description) Aggregate() Aggregate { return d.aggregate }

// String concatenates the sections in request order. Handy for logging
// and offline explain; the real request rendering lives with the
// transport collaborator.
func (d *Description) String() string {
	sb := internal.GetBuilder()
	defer internal.PutBuilder(sb)
	for _, kind := range []SectionKind{SectionWhere, SectionOrderBy, SectionSkip} {
		text := d.Section(kind)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String()
}
