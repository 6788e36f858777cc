// internal/executor/options.go
package executor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// selectOption is one parsed <option> of a select element.
type selectOption struct {
	Value    string
	Text     string
	Disabled bool
}

// parseSelectOptions walks the outer HTML of a <select> and returns its
// options in document order, handling <optgroup> nesting and disabled states.
func parseSelectOptions(outerHTML string) ([]selectOption, error) {
	root, err := html.Parse(strings.NewReader(outerHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing select markup: %w", err)
	}

	var options []selectOption
	var walk func(n *html.Node, groupDisabled bool)
	walk = func(n *html.Node, groupDisabled bool) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "optgroup":
				groupDisabled = groupDisabled || hasAttr(n, "disabled")
			case "option":
				value, hasValue := attrValue(n, "value")
				text := strings.TrimSpace(innerText(n))
				if !hasValue {
					// Without a value attribute the text is the value.
					value = text
				}
				options = append(options, selectOption{
					Value:    value,
					Text:     text,
					Disabled: groupDisabled || hasAttr(n, "disabled"),
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, groupDisabled)
		}
	}
	walk(root, false)
	return options, nil
}

// chooseOption picks the option index for a requested value. Matching order:
// exact value attribute, exact visible text, case-insensitive text, and
// finally the request interpreted as a numeric index. Disabled options never
// match.
func chooseOption(options []selectOption, want string) (int, error) {
	want = strings.TrimSpace(want)

	for i, opt := range options {
		if !opt.Disabled && opt.Value == want {
			return i, nil
		}
	}
	for i, opt := range options {
		if !opt.Disabled && opt.Text == want {
			return i, nil
		}
	}
	for i, opt := range options {
		if !opt.Disabled && strings.EqualFold(opt.Text, want) {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(want); err == nil {
		if idx >= 0 && idx < len(options) && !options[idx].Disabled {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("no selectable option matches %q", want)
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attrValue(n, key)
	return ok
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func innerText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
