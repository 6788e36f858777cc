// internal/extractor/roles.go
package extractor

import "strings"

// widgetRoles are the ARIA roles accepted as actionable when the tag itself
// gives no affordance.
var widgetRoles = map[string]bool{
	"button":     true,
	"link":       true,
	"textbox":    true,
	"searchbox":  true,
	"combobox":   true,
	"listbox":    true,
	"checkbox":   true,
	"radio":      true,
	"switch":     true,
	"slider":     true,
	"spinbutton": true,
	"menuitem":   true,
	"tab":        true,
	"option":     true,
}

// inferRole maps a tag plus input subtype to its implicit ARIA role. The table
// covers only the tags classify admits.
func inferRole(tag, subtype string) string {
	switch strings.ToLower(tag) {
	case "a":
		return "link"
	case "button":
		return "button"
	case "select":
		return "combobox"
	case "textarea":
		return "textbox"
	case "input":
		switch subtype {
		case "button", "submit", "reset", "image":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "range":
			return "slider"
		case "number":
			return "spinbutton"
		case "search":
			return "searchbox"
		default:
			return "textbox"
		}
	}
	if subtype != "" {
		// ARIA widgets carry their explicit role as subtype.
		return subtype
	}
	return ""
}
