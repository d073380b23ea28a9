package model

import (
	"slices"
)

// CatalogDiff describes how a catalog changed between two runs.
type CatalogDiff struct {
	// Added are simulations present only in the newer catalog.
	Added []Simulation `json:"added"`

	// Removed are simulations present only in the older catalog.
	Removed []Simulation `json:"removed"`

	// Changed are simulations present in both whose metadata differs.
	// The newer record is kept.
	Changed []Simulation `json:"changed"`

	// Unchanged is the number of identical records.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether the catalogs differ.
func (d CatalogDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// Languages returns the languages touched by the diff, sorted.
func (d CatalogDiff) Languages() []string {
	seen := make(map[string]bool)
	for _, group := range [][]Simulation{d.Added, d.Removed, d.Changed} {
		for _, s := range group {
			seen[s.Language] = true
		}
	}
	langs := make([]string, 0, len(seen))
	for l := range seen {
		langs = append(langs, l)
	}
	slices.Sort(langs)
	return langs
}

// CompareCatalogs diffs two catalogs by simulation identity. Every list in
// the result is sorted by language then id.
func CompareCatalogs(older, newer []Simulation) CatalogDiff {
	before := make(map[SimulationRef]Simulation, len(older))
	for _, s := range older {
		before[s.Ref()] = s
	}

	diff := CatalogDiff{
		Added:   make([]Simulation, 0),
		Removed: make([]Simulation, 0),
		Changed: make([]Simulation, 0),
	}
	seen := make(map[SimulationRef]bool, len(newer))
	for _, s := range newer {
		seen[s.Ref()] = true
		old, ok := before[s.Ref()]
		switch {
		case !ok:
			diff.Added = append(diff.Added, s)
		case !sameMetadata(old, s):
			diff.Changed = append(diff.Changed, s)
		default:
			diff.Unchanged++
		}
	}
	for _, s := range older {
		if !seen[s.Ref()] {
			diff.Removed = append(diff.Removed, s)
		}
	}

	SortSimulations(diff.Added)
	SortSimulations(diff.Removed)
	SortSimulations(diff.Changed)
	return diff
}

func sameMetadata(a, b Simulation) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		slices.Equal(a.Topics, b.Topics) &&
		slices.Equal(a.Categories, b.Categories)
}
