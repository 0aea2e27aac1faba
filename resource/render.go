package resource

import (
	"net/url"
	"time"

	"github.com/manojoshi/restorm/query"
)

// Render maps a translated Description onto the service's query
// parameters: sections in {filter, order, offset} order, plus the
// diverted last-modified bound. The diverted element identifier is not a
// parameter — the caller appends it to the resource path.
func Render(d *query.Description) url.Values {
	params := url.Values{}
	if s := d.Section(query.SectionWhere); s != "" {
		params.Set("where", s)
	}
	if s := d.Section(query.SectionOrderBy); s != "" {
		params.Set("order", s)
	}
	if s := d.Section(query.SectionSkip); s != "" {
		params.Set("offset", s)
	}
	if ts, ok := d.UpdatedSince(); ok {
		params.Set("modifiedAfter", ts.UTC().Format(time.RFC3339))
	}
	return params
}
