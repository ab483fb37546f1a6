package reconcile

import "strings"

// LineItem is one row of the raw ordered sequence produced by document
// extraction. Order is document order and is semantically meaningful:
// section headers precede their children.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Rate     float64 `json:"rate"`
	Amount   float64 `json:"amount"`
}

// ClassifiedItem is a LineItem annotated with its structural role and the
// search context used for catalog matching.
type ClassifiedItem struct {
	LineItem
	Serial  string
	Header  bool
	Context string
}

// Classifier separates non-billable section headers from billable items and
// builds search context strings from header ancestry.
type Classifier struct {
	keywords []string
}

// NewClassifier creates a classifier. Keywords are lowercase prefixes that
// mark an item as structural regardless of numbering, e.g. "section".
func NewClassifier(keywords []string) *Classifier {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Classifier{keywords: lowered}
}

// Classify walks the ordered item sequence, tagging headers and computing
// each billable item's search context. Output order matches input order.
//
// An item is a header when its rate is zero and either the following item's
// serial is a strict dotted descendant of its own, or its name starts with a
// structural keyword. Headers have their quantity forced to zero: quantity
// zero is the sentinel for "non-billable" throughout the pipeline.
func (c *Classifier) Classify(items []LineItem) []ClassifiedItem {
	out := make([]ClassifiedItem, len(items))
	for i, item := range items {
		serial, _ := parseSerial(item.Name)
		out[i] = ClassifiedItem{LineItem: item, Serial: serial}
	}

	for i := range out {
		if out[i].Rate != 0 {
			continue
		}
		if c.hasKeyword(out[i].Name) {
			out[i].Header = true
			continue
		}
		if out[i].Serial == "" || i+1 >= len(out) {
			continue
		}
		next := out[i+1]
		if next.Serial != "" && isDescendantSerial(next.Serial, out[i].Serial) {
			out[i].Header = true
		}
	}

	for i := range out {
		if out[i].Header {
			out[i].Quantity = 0
			continue
		}
		out[i].Context = out[i].Name
		if out[i].Serial == "" {
			continue
		}
		// Nearest preceding header whose serial is an ancestor wins.
		for j := i - 1; j >= 0; j-- {
			if !out[j].Header || out[j].Serial == "" {
				continue
			}
			if isDescendantSerial(out[i].Serial, out[j].Serial) {
				out[i].Context = out[j].Name + " " + out[i].Name
				break
			}
		}
	}
	return out
}

func (c *Classifier) hasKeyword(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, kw := range c.keywords {
		if strings.HasPrefix(lower, kw) {
			return true
		}
	}
	return false
}
