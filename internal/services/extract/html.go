package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Section titles of the weekly report, in the order they appear.
const (
	titleDailyMinutes = "Daily Active Minutes"
	titleGames        = "Games Played"
	titleLessons      = "Lessons In Progress"
)

var sectionTitles = []string{titleDailyMinutes, titleGames, titleLessons}

var spaceRe = regexp.MustCompile(`\s+`)

// document is a parsed email body with its elements flattened in document
// order, which is what section scoping works on.
type document struct {
	doc   *goquery.Document
	nodes []*goquery.Selection
}

func parseDocument(body string) (*document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	d := &document{doc: doc}
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		d.nodes = append(d.nodes, s)
	})
	return d, nil
}

// text returns the whole visible text with block boundaries kept as newlines.
func (d *document) text() string {
	var lines []string
	d.doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		lines = append(lines, blockText(s)...)
	})
	return strings.Join(lines, "\n")
}

// section returns the elements between the heading that contains title and
// the next section heading. ok is false when the heading is absent.
func (d *document) section(title string) ([]*goquery.Selection, bool) {
	start := -1
	for i, s := range d.nodes {
		if isHeading(s, title) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	end := len(d.nodes)
	for i := start + 1; i < len(d.nodes) && end == len(d.nodes); i++ {
		for _, other := range sectionTitles {
			if other != title && isHeading(d.nodes[i], other) {
				end = i
				break
			}
		}
	}

	var out []*goquery.Selection
	for _, s := range d.nodes[start+1 : end] {
		if !mentionsTitle(s.Text()) {
			out = append(out, s)
		}
	}
	return out, true
}

// isHeading reports whether s is the innermost element containing title.
func isHeading(s *goquery.Selection, title string) bool {
	if !containsFold(s.Text(), title) {
		return false
	}
	inner := s.Children().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return containsFold(c.Text(), title)
	})
	return inner.Length() == 0
}

func mentionsTitle(text string) bool {
	for _, title := range sectionTitles {
		if containsFold(text, title) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return substr != "" && strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// styleHas matches an inline style declaration ignoring whitespace, so
// "color: rgb(156, 163, 175)" matches "color:rgb(156,163,175)".
func styleHas(s *goquery.Selection, decl string) bool {
	style, ok := s.Attr("style")
	if !ok {
		return false
	}
	return strings.Contains(compact(style), compact(decl))
}

func isLeaf(s *goquery.Selection) bool {
	return s.Children().Length() == 0
}

func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func compact(s string) string {
	return strings.ToLower(spaceRe.ReplaceAllString(s, ""))
}

var blockTags = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "br": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "table": true, "ul": true, "ol": true,
}

// blockText flattens s into lines, breaking at block-level elements.
func blockText(s *goquery.Selection) []string {
	var b strings.Builder
	var walk func(sel *goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				b.WriteString(c.Text())
				return
			}
			block := blockTags[goquery.NodeName(c)]
			if block {
				b.WriteString("\n")
			}
			walk(c)
			if block {
				b.WriteString("\n")
			}
		})
	}
	walk(s)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = cleanText(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// titlePatterns match section titles case-insensitively on the original
// text, so offsets stay valid whatever case mapping does to byte lengths.
var titlePatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(sectionTitles))
	for _, title := range sectionTitles {
		m[title] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(title))
	}
	return m
}()

// textSection slices plain text between title and the next section title.
func textSection(text, title string) (string, bool) {
	re, ok := titlePatterns[title]
	if !ok {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(title))
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	start, end := loc[1], len(text)
	for _, other := range sectionTitles {
		if other == title {
			continue
		}
		if next := titlePatterns[other].FindStringIndex(text[start:]); next != nil && start+next[0] < end {
			end = start + next[0]
		}
	}
	return text[start:end], true
}
