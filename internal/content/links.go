// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package content

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/web2llm/pkg/types"
)

// navigationLinks captures the link hierarchy of the first navigation
// element. Nested lists become child links.
func navigationLinks(doc *goquery.Document) []types.Link {
	for _, sel := range navSelectors {
		nav := doc.Find(sel).First()
		if nav.Length() == 0 {
			continue
		}
		list := nav.Find("ul, ol").First()
		if list.Length() > 0 {
			if links := listLinks(list); len(links) > 0 {
				return links
			}
		}
		if links := flatLinks(nav.Find("a[href]")); len(links) > 0 {
			return links
		}
	}
	return nil
}

// footerLinks captures the links of every footer element.
func footerLinks(doc *goquery.Document) []types.Link {
	return flatLinks(doc.Find("footer a[href]"))
}

func listLinks(list *goquery.Selection) []types.Link {
	var links []types.Link
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		var link types.Link
		// The item's own label lives outside any nested list.
		label := li.ChildrenFiltered("a[href]").First()
		if label.Length() == 0 {
			label = li.Children().Not("ul, ol").Find("a[href]").First()
		}
		if label.Length() > 0 {
			link.Text = collapseSpace(label.Text())
			link.Href, _ = label.Attr("href")
		} else {
			link.Text = collapseSpace(li.Children().Not("ul, ol").Text())
		}
		li.ChildrenFiltered("ul, ol").Each(func(_ int, sub *goquery.Selection) {
			link.Children = append(link.Children, listLinks(sub)...)
		})
		if link.Text == "" && link.Href == "" && len(link.Children) == 0 {
			return
		}
		links = append(links, link)
	})
	return links
}

func flatLinks(anchors *goquery.Selection) []types.Link {
	var links []types.Link
	seen := make(map[string]bool)
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := collapseSpace(a.Text())
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, types.Link{Text: text, Href: href})
	})
	return links
}
