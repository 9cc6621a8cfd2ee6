package provider

import (
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain/search/filter"
	"github.com/kailas-cloud/searchbridge/internal/domain/search/request"
)

// CompileFilter renders the canonical Filters and the FacetFilters selection
// in grammar g, then AND-joins the native filter after them. It returns ""
// when the request carries no filter at all.
func CompileFilter(params request.Params, g filter.Grammar) (string, error) {
	expr, err := filter.Parse(params.Filters)
	if err != nil {
		return "", err
	}
	expr = filter.Conjoin(expr, filter.SelectionFromMap(params.FacetFilters).Expr())
	rendered := filter.Render(expr, g)

	native := strings.TrimSpace(params.NativeFilter)
	switch {
	case native == "":
		return rendered, nil
	case rendered == "":
		return native, nil
	default:
		return g.GroupOpen + rendered + g.GroupClose + g.And + g.GroupOpen + native + g.GroupClose, nil
	}
}
