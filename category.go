package recordsync

import "sort"

// CategorySet is the ordered list of category ids asserted for a product:
// root, parent group, then the mapped child.
type CategorySet [3]int

// Child returns the mapped child category id.
func (s CategorySet) Child() int { return s[2] }

// IDs returns the ids as a slice.
func (s CategorySet) IDs() []int { return []int{s[0], s[1], s[2]} }

// CategoryMapping maps human-facing category labels to remote category ids.
type CategoryMapping struct {
	Root     int
	Group    int
	Fallback int
	Children map[string]int
}

// Resolve returns the category set for label. Unmapped labels resolve to the
// fallback child id.
func (m *CategoryMapping) Resolve(label string) CategorySet {
	child, ok := m.Children[label]
	if !ok {
		child = m.Fallback
	}
	return CategorySet{m.Root, m.Group, child}
}

// Labels returns the mapped labels in sorted order.
func (m *CategoryMapping) Labels() []string {
	labels := make([]string, 0, len(m.Children))
	for label := range m.Children {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Has reports whether label is part of the mapping.
func (m *CategoryMapping) Has(label string) bool {
	_, ok := m.Children[label]
	return ok
}

// DefaultCategories is the shop's fixed category table. Id 1 is the catalog
// root, 26 the "Vinyls" group that lists every record, and 2 the home
// category used when a label is not mapped.
//
// Of the child ids only House / Deep House (29) is known to match the live
// shop. The others are placeholders to check against the shop's back office
// before publishing.
var DefaultCategories = &CategoryMapping{
	Root:     1,
	Group:    26,
	Fallback: 2,
	Children: map[string]int{
		"Techno":               27,
		"Minimal / Tech House": 28,
		"House / Deep House":   29,
		"Electro":              30,
		"Drum & Bass / Jungle": 31,
		"Disco / Nu Disco":     32,
		"Ambient / Downtempo":  33,
		"Breaks / Broken Beat": 34,
		"Hip Hop":              35,
		"Dub / Reggae":         36,
		"Acid":                 37,
		"Trance":               38,
		"Experimental / Noise": 39,
		"Techno / Electro Mix": 59,
	},
}
