// Package extract turns markup fragments into structured review records.
//
// Field locations are described as ordered lists of fallback rules rather
// than hardcoded lookups: markup on review sites shifts between templates
// and revisions, so every field carries a priority list of selectors and
// the first structurally-valid match wins.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Rule is one extraction rule: a CSS selector, an optional attribute to
// read instead of the node text, and an optional transform chain applied
// to the matched value.
type Rule struct {
	Query      string
	Attr       string
	Transforms []Transform

	matcher cascadia.Selector
}

// Sel builds a text-extraction rule. The selector is compiled eagerly;
// profiles are static so a bad selector is a programming error.
func Sel(query string, transforms ...Transform) Rule {
	return Rule{
		Query:      query,
		Transforms: transforms,
		matcher:    cascadia.MustCompile(query),
	}
}

// Attr builds a rule that reads an attribute from the matched node.
func Attr(query, attr string, transforms ...Transform) Rule {
	return Rule{
		Query:      query,
		Attr:       attr,
		Transforms: transforms,
		matcher:    cascadia.MustCompile(query),
	}
}

// Resolve tries each rule in order against root and returns the first
// non-empty value after trimming and transforms. A rule that locates no
// node, a missing attribute, or a value that transforms away to nothing
// all count as "rule did not match", never as an error.
func Resolve(root *goquery.Selection, rules []Rule) (string, bool) {
	for _, r := range rules {
		node := root.FindMatcher(r.matcher).First()
		if node.Length() == 0 {
			continue
		}

		var raw string
		if r.Attr != "" {
			raw, _ = node.Attr(r.Attr)
		} else {
			raw = node.Text()
		}

		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		for _, t := range r.Transforms {
			value = t(value)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		return value, true
	}
	return "", false
}

// ResolveNode is Resolve for callers that need the matched node itself
// (e.g. to re-render its inner HTML). Transforms are not applied.
func ResolveNode(root *goquery.Selection, rules []Rule) (*goquery.Selection, bool) {
	for _, r := range rules {
		node := root.FindMatcher(r.matcher).First()
		if node.Length() == 0 {
			continue
		}
		if strings.TrimSpace(node.Text()) == "" && r.Attr == "" {
			continue
		}
		return node, true
	}
	return nil, false
}

// FieldStrategy is the ordered rule list for one record field plus the
// sentinel used when no rule matches. Instances are configured statically
// per site profile and are read-only at runtime, so they may be shared
// across concurrent crawls.
type FieldStrategy struct {
	Rules    []Rule
	Sentinel string
}

// Apply resolves the field against root, falling back to the sentinel.
func (f FieldStrategy) Apply(root *goquery.Selection) (string, bool) {
	if v, ok := Resolve(root, f.Rules); ok {
		return v, true
	}
	return f.Sentinel, false
}
