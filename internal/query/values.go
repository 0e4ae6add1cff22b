package query

import (
	"net/url"
	"strconv"
	"strings"
)

// ParseValues reads Params from URL query values:
//
//	?limit=10&offset=20&sortBy=title&sortDirection=desc
//	&filter=title:contains:go&filter=status:equals:published
//
// Each filter is "id:operator:value"; the value may itself contain colons
// and may be omitted for the empty operator. A non-integer limit or offset,
// or a malformed filter, is an InvalidParameter failure. Range and field
// checks are left to the Resolver.
func ParseValues(v url.Values) (Params, *Failure) {
	var p Params

	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Params{}, invalidParameter("limit must be an integer, got %q", s)
		}
		p.Limit = &n
	}
	if s := v.Get("offset"); s != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Params{}, invalidParameter("offset must be an integer, got %q", s)
		}
		p.Offset = &n
	}

	p.SortBy = v.Get("sortBy")
	p.Sort = v.Get("sort")
	p.SortDirection = Direction(v.Get("sortDirection"))

	for i, raw := range v["filter"] {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			return Params{}, invalidParameter("filter %d: want id:operator:value, got %q", i, raw)
		}
		f := Filter{ID: parts[0], Operator: Operator(parts[1])}
		if len(parts) == 3 {
			f.Value = parts[2]
		}
		p.Filters = append(p.Filters, f)
	}

	return p, nil
}
