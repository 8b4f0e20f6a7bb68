// Package extract pulls structured fields out of the raw bodies the campus
// portals return. The upstream sites render data straight into their pages,
// either as `var x = ...;` script assignments or as repeated markup blocks,
// so everything here works off fixed selectors and assignment names.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"nanyuan-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Error reports that an expected pattern was absent from a response body.
// This usually means the upstream returned an error page or changed markup.
type Error struct {
	What string
}

func (e *Error) Error() string {
	return fmt.Sprintf("missing %s in response body", e.What)
}

// ScriptVar returns the right-hand side of a `var <name> = ...;` assignment
// embedded in the body, without the trailing semicolon.
func ScriptVar(body, name string) (string, error) {
	re := regexp.MustCompile(`(?m)var ` + regexp.QuoteMeta(name) + `\s*=\s*(.+?);?\s*$`)
	groups := re.FindStringSubmatch(body)
	if len(groups) < 2 {
		return "", &Error{What: fmt.Sprintf("script variable %q", name)}
	}
	return strings.TrimSpace(groups[1]), nil
}

// ScriptVarJSON decodes a script variable's value as JSON.
func ScriptVarJSON(body, name string, out any) error {
	raw, err := ScriptVar(body, name)
	if err != nil {
		return err
	}
	err = json.Unmarshal([]byte(raw), out)
	if err != nil {
		return &Error{What: fmt.Sprintf("valid JSON in script variable %q", name)}
	}
	return nil
}

// ScriptVarString returns a script variable holding a quoted string literal,
// with the quotes stripped.
func ScriptVarString(body, name string) (string, error) {
	raw, err := ScriptVar(body, name)
	if err != nil {
		return "", err
	}
	return strings.Trim(raw, `'"`), nil
}

// Document parses a response body into a goquery document.
func Document(body string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &Error{What: "parsable html"}
	}
	return doc, nil
}

// Text returns the compacted text of the first node matching the selector,
// scoped to the given selection.
func Text(sel *goquery.Selection, selector string) (string, error) {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return "", &Error{What: fmt.Sprintf("element %q", selector)}
	}
	return htmlutil.CompactText(htmlutil.GetText(match.Nodes[0])), nil
}

// TextAfter is Text with a fixed label prefix stripped, for fields the
// upstream renders as "label: value" in a single element.
func TextAfter(sel *goquery.Selection, selector, label string) (string, error) {
	text, err := Text(sel, selector)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(text, label) {
		return "", &Error{What: fmt.Sprintf("label %q on element %q", label, selector)}
	}
	return strings.TrimSpace(strings.TrimPrefix(text, label)), nil
}

// OuterHtml returns the raw outer HTML of the first node matching the
// selector. Some upstream pages embed display scripts the client is expected
// to carry along verbatim.
func OuterHtml(sel *goquery.Selection, selector string) (string, error) {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return "", &Error{What: fmt.Sprintf("element %q", selector)}
	}
	raw, err := goquery.OuterHtml(match)
	if err != nil {
		return "", &Error{What: fmt.Sprintf("renderable element %q", selector)}
	}
	return raw, nil
}
