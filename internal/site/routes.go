package site

import (
	"strings"

	"github.com/jcdickinson/showroom/internal/section"
)

// NavItem is one entry of the sidebar.
type NavItem struct {
	Title    string
	URL      string
	Route    string
	External bool
	Children []*NavItem
}

// URL returns the absolute URL path of route under the base path.
func (s *Site) URL(route string) string {
	if route == "" {
		return s.Config.BasePath + "/"
	}
	return s.Config.BasePath + "/" + route
}

// Route strips the base path and surrounding slashes from a request path.
// ok is false when the path lies outside the base path.
func (s *Site) Route(urlPath string) (route string, ok bool) {
	base := s.Config.BasePath
	if base != "" {
		if urlPath != base && !strings.HasPrefix(urlPath, base+"/") {
			return "", false
		}
		urlPath = strings.TrimPrefix(urlPath, base)
	}
	return strings.Trim(urlPath, "/"), true
}

// Match finds the page served at urlPath.
func (s *Site) Match(urlPath string) (*Page, bool) {
	route, ok := s.Route(urlPath)
	if !ok {
		return nil, false
	}
	return s.Page(route)
}

func (s *Site) buildNav(sections []section.Section) []*NavItem {
	items := make([]*NavItem, 0, len(sections))
	for _, sec := range sections {
		switch v := sec.(type) {
		case *section.LinkSection:
			items = append(items, &NavItem{Title: v.Title, URL: v.Href, External: true})
		case *section.GroupSection:
			items = append(items, &NavItem{
				Title: v.Title, URL: s.URL(v.Slug), Route: v.Slug,
				Children: s.buildNav(v.Items),
			})
		default:
			slug, _ := sec.SlugOf()
			title := slug
			if p, ok := s.routes[slug]; ok {
				title = p.Title
			}
			items = append(items, &NavItem{Title: title, URL: s.URL(slug), Route: slug})
		}
	}
	return items
}

// navContains reports whether route is item or one of its descendants.
func navContains(item *NavItem, route string) bool {
	if !item.External && item.Route == route {
		return true
	}
	for _, c := range item.Children {
		if navContains(c, route) {
			return true
		}
	}
	return false
}
