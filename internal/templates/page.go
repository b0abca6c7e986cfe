package templates

import (
	"bytes"
	"html/template"
	"io"

	"newsdesk-sections/internal/sections"
)

// Page is a rendered page split into layout columns.
type Page struct {
	Title string
	Left  []template.HTML
	Main  []template.HTML
	Right []template.HTML
}

// RenderPage renders views in order. Rail templates go to the column named by
// the section's side (right when unset); everything else goes to the main column.
// A section that fails to render is left out rather than failing the page.
func (r *Registry) RenderPage(w io.Writer, title string, views []View, onError func(View, error)) error {
	page := Page{Title: title}
	for _, view := range views {
		var buf bytes.Buffer
		if err := r.For(view.Section.Template).Render(&buf, view); err != nil {
			if onError != nil {
				onError(view, err)
			}
			continue
		}
		fragment := template.HTML(buf.String())
		switch Column(view.Section) {
		case sections.SideLeft:
			page.Left = append(page.Left, fragment)
		case sections.SideRight:
			page.Right = append(page.Right, fragment)
		default:
			page.Main = append(page.Main, fragment)
		}
	}
	return r.set.ExecuteTemplate(w, "page", page)
}

// Column returns the side column of a rail section, or SideNone for the main column.
func Column(s sections.Section) sections.Side {
	if !s.Template.IsRail() {
		return sections.SideNone
	}
	if s.Side == sections.SideLeft {
		return sections.SideLeft
	}
	return sections.SideRight
}
