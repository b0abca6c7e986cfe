package feed

import "newsdesk-sections/internal/articles"

type WindowOptions struct {
	Offset int
	Limit  int
	// SkipLead drops the canonical lead (index 0) from the window and tops
	// the window up from items after it.
	SkipLead bool
}

// Window slices [offset, offset+limit) out of a canonical list. A limit of
// zero or less means the rest of the list.
func Window(canonical []articles.Article, opts WindowOptions) []articles.Article {
	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > len(canonical) {
		start = len(canonical)
	}
	want := len(canonical) - start
	if opts.Limit > 0 && opts.Limit < want {
		want = opts.Limit
	}
	out := make([]articles.Article, 0, want)
	if !opts.SkipLead || len(canonical) == 0 {
		return append(out, canonical[start:start+want]...)
	}
	lead := canonical[0]
	for i := start; i < len(canonical) && len(out) < want; i++ {
		if i == 0 || SameItem(canonical[i], lead) {
			continue
		}
		out = append(out, canonical[i])
	}
	return out
}

// SameItem compares identity keys. Items without a key never match.
func SameItem(a, b articles.Article) bool {
	return a.Key != "" && a.Key == b.Key
}
