package query

import (
	"fmt"
	"strconv"
	"time"

	"github.com/manojoshi/restorm/entity"
	"github.com/manojoshi/restorm/internal"
)

// descendingSuffix marks descending order in the service's order grammar;
// orderSeparator joins composed order keys.
const (
	descendingSuffix = " DESC"
	orderSeparator   = ", "
)

// operator table: textual form of each supported binary operator. Kinds
// missing here fail translation with UnsupportedOperatorError.
var operatorText = map[Op]string{
	OpAnd: " AND ",
	OpOr:  " OR ",
	OpEq:  " == ",
	OpNe:  " <> ",
	OpLt:  " < ",
	OpLe:  " <= ",
	OpGt:  " > ",
	OpGe:  " >= ",
}

// approvedKinds are the field value types whose methods the service
// documents as usable inline in a filter.
var approvedKinds = []entity.Kind{entity.KindString, entity.KindDateTime, entity.KindGuid}

// Translate walks the expression tree exactly once and returns the
// populated Description. Any unsupported construct is a hard failure:
// no partial, best-effort query is ever returned.
func Translate(root Expr) (*Description, error) {
	t := &translator{desc: NewDescription(), section: SectionUnknown}
	if err := t.visit(root); err != nil {
		return nil, err
	}
	return t.desc, nil
}

// translator carries the single mutable piece of traversal state: the
// section new fragments are appended to. Section scopes save/restore it
// around each nested visit, including on error paths.
type translator struct {
	desc    *Description
	section SectionKind
}

func (t *translator) write(s string) { t.desc.AppendTerm(s, t.section) }

// separateOrder joins a subordinate order key onto an ordering the
// section already holds.
func (t *translator) separateOrder() {
	if t.desc.Section(SectionOrderBy) != "" {
		t.desc.AppendTerm(orderSeparator, SectionOrderBy)
	}
}

// scoped visits exprs with the cursor pointed at section, restoring the
// previous section unconditionally on exit.
func (t *translator) scoped(section SectionKind, exprs ...Expr) error {
	prev := t.section
	t.section = section
	defer func() { t.section = prev }()
	for _, e := range exprs {
		if err := t.visit(e); err != nil {
			return err
		}
	}
	return nil
}

func (t *translator) visit(e Expr) error {
	switch n := e.(type) {
	case nil:
		return nil
	case *call:
		return t.visitCall(n)
	case *unary:
		return t.visitUnary(n)
	case *binary:
		return t.visitBinary(n)
	case *constant:
		return t.visitConstant(n)
	case *member:
		return t.visitMember(n)
	case *construct:
		v, err := evaluate(n)
		if err != nil {
			return err
		}
		return t.writeLiteral(v, n.kind)
	default:
		return &UnsupportedOperationError{Method: fmt.Sprintf("%T", e)}
	}
}

// -------------------------------------------------------------------
// method calls
// -------------------------------------------------------------------

func (t *translator) visitCall(n *call) error {
	switch n.method {
	case "Where":
		if err := t.visit(n.on); err != nil {
			return err
		}
		return t.scoped(SectionWhere, n.args...)

	case "First", "FirstOrDefault", "Single", "SingleOrDefault":
		if err := t.desc.SetAggregate(Aggregate(n.method)); err != nil {
			return err
		}
		if err := t.visit(n.on); err != nil {
			return err
		}
		// an inline predicate behaves exactly like Where
		return t.scoped(SectionWhere, n.args...)

	case "Count":
		if err := t.desc.SetAggregate(AggregateCount); err != nil {
			return err
		}
		if err := t.visit(n.on); err != nil {
			return err
		}
		for _, a := range n.args {
			if err := t.visit(a); err != nil {
				return err
			}
		}
		return nil

	case "OrderBy", "ThenBy":
		if err := t.visit(n.on); err != nil {
			return err
		}
		if n.method == "ThenBy" {
			t.separateOrder()
		}
		return t.scoped(SectionOrderBy, n.args...)

	case "OrderByDescending", "ThenByDescending":
		if err := t.visit(n.on); err != nil {
			return err
		}
		if n.method == "ThenByDescending" {
			t.separateOrder()
		}
		if err := t.scoped(SectionOrderBy, n.args...); err != nil {
			return err
		}
		t.desc.AppendTerm(descendingSuffix, SectionOrderBy)
		return nil

	case "Skip":
		if err := t.visit(n.on); err != nil {
			return err
		}
		return t.scoped(SectionSkip, n.args...)
	}

	if internal.Contains(approvedKinds, n.declaring) {
		return t.writeFieldMethod(n)
	}
	return &UnsupportedOperationError{Method: n.method}
}

// writeFieldMethod renders a method invoked on a field value, e.g.
// Name.StartsWith("Jason"). Static methods get the declaring type name
// as prefix.
func (t *translator) writeFieldMethod(n *call) error {
	if n.on == nil {
		t.write(n.declaring.String())
	} else if err := t.visit(n.on); err != nil {
		return err
	}
	t.write("." + n.method + "(")
	for i, a := range n.args {
		if i > 0 {
			t.write(",")
		}
		if err := t.visit(a); err != nil {
			return err
		}
	}
	t.write(")")
	return nil
}

// -------------------------------------------------------------------
// unary
// -------------------------------------------------------------------

func (t *translator) visitUnary(n *unary) error {
	if n.op == unaryNot {
		t.write("(")
		if err := t.visit(n.x); err != nil {
			return err
		}
		t.write(" == false)")
		return nil
	}
	// conversions and other wrappers pass through untouched
	return t.visit(n.x)
}

// -------------------------------------------------------------------
// binary
// -------------------------------------------------------------------

func (t *translator) visitBinary(n *binary) error {
	// 1. divert comparisons against the designated special fields
	diverted, err := t.divert(n)
	if err != nil || diverted {
		return err
	}

	// 2. unwrap the String.Compare(a, b) == 0 shape some upstream
	//    builders emit for string equality: restart on a plain
	//    comparison of the helper's own arguments, preserving direction
	if c, ok := n.l.(*call); ok &&
		c.on == nil && c.method == "Compare" &&
		c.declaring == entity.KindString && len(c.args) == 2 {
		return t.visitBinary(&binary{op: n.op, l: c.args[0], r: c.args[1]})
	}

	// 3. a special-field comparison combined with another predicate via
	//    AND/OR: route the special side through the diversion path and
	//    render only the other side, unwrapped, so no empty operand is
	//    left behind
	if lb, ok := n.l.(*binary); ok && t.divertible(lb) {
		if err := t.visitBinary(lb); err != nil {
			return err
		}
		return t.visit(n.r)
	}
	if rb, ok := n.r.(*binary); ok && t.divertible(rb) {
		if err := t.visitBinary(rb); err != nil {
			return err
		}
		return t.visit(n.l)
	}

	// 4. generic parenthesized rendering
	op, ok := operatorText[n.op]
	if !ok {
		return &UnsupportedOperatorError{Op: n.op}
	}
	t.write("(")
	if err := t.visit(n.l); err != nil {
		return err
	}
	t.write(op)
	if err := t.visit(n.r); err != nil {
		return err
	}
	t.write(")")
	return nil
}

// specialField classifies a binary node's left side against the element's
// designated fields.
type specialField int

const (
	notSpecial specialField = iota
	idField
	numberField
	updatedField
)

func (t *translator) classify(n *binary) specialField {
	m, ok := n.l.(*member)
	if !ok {
		return notSpecial
	}
	if _, onParam := m.on.(*param); !onParam {
		return notSpecial
	}
	schema := t.desc.schema
	if schema == nil {
		return notSpecial
	}
	switch {
	case schema.ID != nil && m.name == schema.ID.Name:
		return idField
	case schema.Number != nil && m.name == schema.Number.Name:
		return numberField
	case schema.Updated != nil && m.name == schema.Updated.Name:
		return updatedField
	}
	return notSpecial
}

func (t *translator) divertible(n *binary) bool { return t.classify(n) != notSpecial }

// divert extracts comparisons against the identifier, business-key and
// last-modified fields into their dedicated query parameters. It reports
// whether the node was fully consumed; a number comparison against null
// deliberately falls through to generic rendering.
func (t *translator) divert(n *binary) (bool, error) {
	switch t.classify(n) {
	case idField:
		v, err := evaluate(n.r)
		if err != nil {
			return false, err
		}
		t.desc.SetElementID(stringify(v))
		return true, nil

	case numberField:
		v, err := evaluate(n.r)
		if err != nil {
			return false, err
		}
		if isNilValue(v) {
			// comparing the business key against null is a normal
			// filter, not a lookup
			return false, nil
		}
		t.desc.SetElementID(stringify(v))
		return true, nil

	case updatedField:
		v, err := evaluate(n.r)
		if err != nil {
			return false, err
		}
		ts, ok := v.(time.Time)
		if !ok {
			return false, &UnsupportedLiteralTypeError{Kind: entity.KindDateTime, Value: v}
		}
		t.desc.SetUpdatedSince(ts)
		return true, nil
	}
	return false, nil
}

// -------------------------------------------------------------------
// constants
// -------------------------------------------------------------------

func (t *translator) visitConstant(n *constant) error {
	switch v := n.value.(type) {
	case *source:
		// the queryable root: contributes element metadata only
		t.desc.setSchema(v.schema)
		return nil
	case nil:
		t.write("NULL")
		return nil
	case bool:
		t.write(strconv.FormatBool(v))
		return nil
	case string:
		// double-quoted, unescaped: the service's grammar has no escape
		// sequences
		t.write(`"` + v + `"`)
		return nil
	case time.Time:
		// timestamps reaching this path were already handled via the
		// member / construct evaluation routes; render nothing
		return nil
	}

	if isPrimitive(n.value) {
		t.write(fmt.Sprint(n.value))
		return nil
	}
	return &UnsupportedConstantError{Value: n.value}
}

// -------------------------------------------------------------------
// member access
// -------------------------------------------------------------------

func (t *translator) visitMember(n *member) error {
	switch n.on.(type) {
	case *param:
		t.write(n.name)
		return nil
	case *member:
		// nested access renders as DeclaringType.Field; knowingly
		// approximate, but it is the only shape the remote grammar takes
		t.write(n.decl + "." + n.name)
		return nil
	case *constant:
		v, err := evaluate(n)
		if err != nil {
			return err
		}
		return t.writeLiteral(v, n.kind)
	}
	return &UnsupportedMemberAccessError{Name: n.name}
}
