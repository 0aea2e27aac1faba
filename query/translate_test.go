package query_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manojoshi/restorm/entity"
	q "github.com/manojoshi/restorm/query"
)

type Invoice struct {
	InvoiceID     uuid.UUID `restorm:"InvoiceID,id"`
	InvoiceNumber string    `restorm:"InvoiceNumber,number"`
	UpdatedUTC    time.Time `restorm:"UpdatedDateUTC,updated"`
	Name          string
	Status        string
	Qty           int
	IsActive      bool
	Date          time.Time
}

func invoiceSource(t *testing.T) q.Expr {
	t.Helper()
	schema, err := entity.Describe(Invoice{})
	require.NoError(t, err)
	return q.Source(schema)
}

func whereOf(t *testing.T, pred q.Expr) *q.Description {
	t.Helper()
	desc, err := q.Translate(q.Invoke(invoiceSource(t), "Where", pred))
	require.NoError(t, err)
	return desc
}

func TestTranslate_ComparisonOperators(t *testing.T) {
	cases := []struct {
		op   q.Op
		want string
	}{
		{q.OpEq, `(Qty == 5)`},
		{q.OpNe, `(Qty <> 5)`},
		{q.OpLt, `(Qty < 5)`},
		{q.OpLe, `(Qty <= 5)`},
		{q.OpGt, `(Qty > 5)`},
		{q.OpGe, `(Qty >= 5)`},
	}
	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			desc := whereOf(t, q.Binary(tc.op, q.Field("Qty"), q.Value(5)))
			assert.Equal(t, tc.want, desc.Section(q.SectionWhere))
		})
	}
}

func TestTranslate_LogicalCombinators(t *testing.T) {
	pred := q.And(
		q.Eq(q.Field("Status"), q.Value("PAID")),
		q.Gt(q.Field("Qty"), q.Value(2)),
	)
	desc := whereOf(t, pred)
	assert.Equal(t, `((Status == "PAID") AND (Qty > 2))`, desc.Section(q.SectionWhere))

	pred = q.Or(
		q.Eq(q.Field("Status"), q.Value("PAID")),
		q.Eq(q.Field("Status"), q.Value("VOIDED")),
	)
	desc = whereOf(t, pred)
	assert.Equal(t, `((Status == "PAID") OR (Status == "VOIDED"))`, desc.Section(q.SectionWhere))
}

func TestTranslate_SectionsAreIndependent(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "Where",
		q.Eq(q.Field("Status"), q.Value("PAID")))
	root = q.Invoke(root, "OrderByDescending", q.Field("Date"))

	desc, err := q.Translate(root)
	require.NoError(t, err)

	where := desc.Section(q.SectionWhere)
	order := desc.Section(q.SectionOrderBy)
	assert.Equal(t, `(Status == "PAID")`, where)
	assert.Equal(t, "Date DESC", order)
	assert.NotContains(t, where, "DESC")
	assert.NotContains(t, order, "Status")
}

func TestTranslate_OrderByAscending(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "OrderBy", q.Field("Date"))
	desc, err := q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, "Date", desc.Section(q.SectionOrderBy))
}

func TestTranslate_ComposedOrderings(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "OrderBy", q.Field("Status"))
	root = q.Invoke(root, "ThenBy", q.Field("Qty"))
	desc, err := q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, "Status, Qty", desc.Section(q.SectionOrderBy))

	root = q.Invoke(invoiceSource(t), "OrderByDescending", q.Field("Date"))
	root = q.Invoke(root, "ThenBy", q.Field("Name"))
	desc, err = q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, "Date DESC, Name", desc.Section(q.SectionOrderBy))

	root = q.Invoke(invoiceSource(t), "OrderBy", q.Field("Status"))
	root = q.Invoke(root, "ThenByDescending", q.Field("Date"))
	desc, err = q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, "Status, Date DESC", desc.Section(q.SectionOrderBy))
}

func TestTranslate_Skip(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "Skip", q.Value(20))
	desc, err := q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, "20", desc.Section(q.SectionSkip))
	assert.Empty(t, desc.Section(q.SectionWhere))
}

func TestTranslate_IDComparisonIsDiverted(t *testing.T) {
	id := uuid.MustParse("9c2327e2-2316-42a8-8f12-5e0c6b1d4cd3")
	desc := whereOf(t, q.Eq(q.Field("InvoiceID"), q.Value(id)))

	got, ok := desc.ElementID()
	require.True(t, ok)
	assert.Equal(t, id.String(), got)
	assert.Empty(t, desc.Section(q.SectionWhere))
}

func TestTranslate_IDInConjunctionLeavesRestOfFilter(t *testing.T) {
	id := uuid.MustParse("9c2327e2-2316-42a8-8f12-5e0c6b1d4cd3")
	pred := q.And(
		q.Eq(q.Field("InvoiceID"), q.NewGuid(id.String())),
		q.Eq(q.Field("Status"), q.Value("PAID")),
	)
	desc := whereOf(t, pred)

	got, ok := desc.ElementID()
	require.True(t, ok)
	assert.Equal(t, id.String(), got)
	// the remaining conjunct renders alone, unwrapped by the AND
	assert.Equal(t, `(Status == "PAID")`, desc.Section(q.SectionWhere))
}

func TestTranslate_IDOnRightSideOfConjunction(t *testing.T) {
	id := uuid.MustParse("2d5f0e3b-91a4-4c7e-b7b0-64e1c95a0f11")
	pred := q.And(
		q.Eq(q.Field("Status"), q.Value("PAID")),
		q.Eq(q.Field("InvoiceID"), q.Value(id)),
	)
	desc := whereOf(t, pred)

	got, ok := desc.ElementID()
	require.True(t, ok)
	assert.Equal(t, id.String(), got)
	assert.Equal(t, `(Status == "PAID")`, desc.Section(q.SectionWhere))
}

func TestTranslate_NumberComparisonIsDiverted(t *testing.T) {
	desc := whereOf(t, q.Eq(q.Field("InvoiceNumber"), q.Value("INV-001")))

	got, ok := desc.ElementID()
	require.True(t, ok)
	assert.Equal(t, "INV-001", got)
	assert.Empty(t, desc.Section(q.SectionWhere))
}

func TestTranslate_NumberAgainstNullStaysInFilter(t *testing.T) {
	desc := whereOf(t, q.Eq(q.Field("InvoiceNumber"), q.Null()))

	_, ok := desc.ElementID()
	assert.False(t, ok)
	assert.Equal(t, `(InvoiceNumber == NULL)`, desc.Section(q.SectionWhere))
}

func TestTranslate_UpdatedDateIsDiverted(t *testing.T) {
	desc := whereOf(t, q.Ge(q.Field("UpdatedDateUTC"), q.NewDate(2024, 3, 1)))

	got, ok := desc.UpdatedSince()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Empty(t, desc.Section(q.SectionWhere))
}

func TestTranslate_UpdatedDateFromCapturedValue(t *testing.T) {
	window := struct{ Since time.Time }{
		Since: time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC),
	}
	desc := whereOf(t, q.Ge(q.Field("UpdatedDateUTC"), q.Capture(window, "Since")))

	got, ok := desc.UpdatedSince()
	require.True(t, ok)
	assert.Equal(t, window.Since, got)
}

func TestTranslate_ConflictingAggregatesFail(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "First")
	root = q.Invoke(root, "Single")

	_, err := q.Translate(root)
	var aggErr *q.MultipleAggregatesError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, q.AggregateSingle, aggErr.Existing)
	assert.Equal(t, q.AggregateFirst, aggErr.Requested)
}

func TestTranslate_RepeatedAggregateIsIdempotent(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "First")
	root = q.Invoke(root, "First")

	desc, err := q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, q.AggregateFirst, desc.Aggregate())
}

func TestTranslate_AggregateWithPredicate(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "FirstOrDefault",
		q.Eq(q.Field("Status"), q.Value("DRAFT")))

	desc, err := q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, q.AggregateFirstOrDefault, desc.Aggregate())
	assert.Equal(t, `(Status == "DRAFT")`, desc.Section(q.SectionWhere))
}

func TestTranslate_CountIsRecorded(t *testing.T) {
	root := q.Invoke(invoiceSource(t), "Count")
	desc, err := q.Translate(root)
	require.NoError(t, err)
	assert.Equal(t, q.AggregateCount, desc.Aggregate())
}

func TestTranslate_NegationRendersEqualsFalse(t *testing.T) {
	desc := whereOf(t, q.Not(q.Field("IsActive")))
	assert.Equal(t, `(IsActive == false)`, desc.Section(q.SectionWhere))
}

func TestTranslate_ConvertPassesThrough(t *testing.T) {
	desc := whereOf(t, q.Eq(q.Convert(q.Field("Qty")), q.Value(1)))
	assert.Equal(t, `(Qty == 1)`, desc.Section(q.SectionWhere))
}

func TestTranslate_StringFieldMethods(t *testing.T) {
	desc := whereOf(t, q.StartsWith(q.Field("Name"), q.Value("Jason")))
	assert.Equal(t, `Name.StartsWith("Jason")`, desc.Section(q.SectionWhere))

	desc = whereOf(t, q.Contains(q.Field("Name"), q.Value("son")))
	assert.Equal(t, `Name.Contains("son")`, desc.Section(q.SectionWhere))
}

func TestTranslate_FieldMethodInsideConjunction(t *testing.T) {
	pred := q.And(
		q.StartsWith(q.Field("Name"), q.Value("Jason")),
		q.Eq(q.Field("Status"), q.Value("PAID")),
	)
	desc := whereOf(t, pred)
	assert.Equal(t, `(Name.StartsWith("Jason") AND (Status == "PAID"))`,
		desc.Section(q.SectionWhere))
}

func TestTranslate_DateLiterals(t *testing.T) {
	desc := whereOf(t, q.Eq(q.Field("Date"), q.NewDate(2024, 3, 1)))
	assert.Equal(t, `(Date == DateTime(2024,3,1))`, desc.Section(q.SectionWhere))

	desc = whereOf(t, q.Eq(q.Field("Date"), q.NewDate(2024, 3, 1, 14, 30, 0)))
	assert.Equal(t, `(Date == DateTime(2024,3,1,14,30,0))`, desc.Section(q.SectionWhere))
}

func TestTranslate_CapturedGuidLiterals(t *testing.T) {
	ref := struct{ G uuid.UUID }{}
	desc := whereOf(t, q.Eq(q.Field("Name"), q.Capture(ref, "G")))
	assert.Equal(t, `(Name == Guid.Empty)`, desc.Section(q.SectionWhere))

	ref.G = uuid.MustParse("c42f1f3a-11aa-4bf2-9a2c-7e83f0f9d100")
	desc = whereOf(t, q.Eq(q.Field("Name"), q.Capture(ref, "G")))
	assert.Equal(t, `(Name == Guid("c42f1f3a-11aa-4bf2-9a2c-7e83f0f9d100"))`,
		desc.Section(q.SectionWhere))
}

func TestTranslate_CapturedIntIsQuoted(t *testing.T) {
	limits := struct{ Min int }{Min: 5}
	desc := whereOf(t, q.Gt(q.Field("Qty"), q.Capture(limits, "Min")))
	assert.Equal(t, `(Qty > "5")`, desc.Section(q.SectionWhere))
}

func TestTranslate_CapturedNilStringRendersNull(t *testing.T) {
	owner := struct{ Ref *string }{}
	desc := whereOf(t, q.Eq(q.Field("Name"), q.Capture(owner, "Ref")))
	assert.Equal(t, `(Name == null)`, desc.Section(q.SectionWhere))
}

func TestTranslate_StringCompareRewrite(t *testing.T) {
	pred := q.Eq(
		q.StringCompare(q.Field("Name"), q.Value("ACME")),
		q.Value(0),
	)
	desc := whereOf(t, pred)
	assert.Equal(t, `(Name == "ACME")`, desc.Section(q.SectionWhere))

	pred = q.Ne(
		q.StringCompare(q.Field("Name"), q.Value("ACME")),
		q.Value(0),
	)
	desc = whereOf(t, pred)
	assert.Equal(t, `(Name <> "ACME")`, desc.Section(q.SectionWhere))
}

func TestTranslate_NestedMemberAccess(t *testing.T) {
	pred := q.Eq(q.Sub(q.Field("Contact"), "Contact", "Name"), q.Value("ACME"))
	desc := whereOf(t, pred)
	assert.Equal(t, `(Contact.Name == "ACME")`, desc.Section(q.SectionWhere))
}

func TestTranslate_UnsupportedOperator(t *testing.T) {
	_, err := q.Translate(q.Invoke(invoiceSource(t), "Where",
		q.Binary(q.OpXor, q.Field("Qty"), q.Value(1))))

	var opErr *q.UnsupportedOperatorError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, q.OpXor, opErr.Op)
}

func TestTranslate_UnsupportedOperation(t *testing.T) {
	_, err := q.Translate(q.Invoke(invoiceSource(t), "GroupBy", q.Field("Status")))

	var opErr *q.UnsupportedOperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "GroupBy", opErr.Method)
}

func TestTranslate_UnsupportedConstant(t *testing.T) {
	_, err := q.Translate(q.Invoke(invoiceSource(t), "Where",
		q.Eq(q.Field("Name"), q.Value(struct{ X int }{}))))

	var constErr *q.UnsupportedConstantError
	require.ErrorAs(t, err, &constErr)
}

func TestTranslate_UnsupportedMemberAccess(t *testing.T) {
	pred := q.Eq(q.Sub(q.Not(q.Field("IsActive")), "X", "Y"), q.Value(1))
	_, err := q.Translate(q.Invoke(invoiceSource(t), "Where", pred))

	var memErr *q.UnsupportedMemberAccessError
	require.ErrorAs(t, err, &memErr)
}

func TestTranslate_BoolAndNullConstants(t *testing.T) {
	desc := whereOf(t, q.Eq(q.Field("IsActive"), q.Value(true)))
	assert.Equal(t, `(IsActive == true)`, desc.Section(q.SectionWhere))

	desc = whereOf(t, q.Ne(q.Field("Name"), q.Null()))
	assert.Equal(t, `(Name <> NULL)`, desc.Section(q.SectionWhere))
}

func TestTranslate_SchemaCapturedFromSource(t *testing.T) {
	desc, err := q.Translate(invoiceSource(t))
	require.NoError(t, err)
	require.NotNil(t, desc.Schema())
	assert.Equal(t, "Invoice", desc.Schema().Name)
	assert.Equal(t, "Invoices", desc.Schema().Plural)
}
