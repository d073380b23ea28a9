package model

import (
	"slices"
	"strings"
)

// SimulationRef identifies one simulation in one language.
// The pair (ID, Language) is unique within a catalog.
type SimulationRef struct {
	// ID is the simulation slug, e.g. "build-an-atom".
	ID string `json:"id"`

	// Language is the locale code the simulation is offered in, e.g. "en" or "es".
	Language string `json:"language"`
}

// String returns "<id>_<language>", the form used in document file names.
func (r SimulationRef) String() string {
	return r.ID + "_" + r.Language
}

// ParseSimulationRef derives a SimulationRef from a download link or file
// name such as "https://host/sims/html/foo/latest/foo_es.html" or "foo_es.html".
// The last path segment is stripped of its extension and split on the first
// underscore, so a region locale stays whole ("foo_zh_CN" is id "foo",
// language "zh_CN"). Slugs are hyphenated and never contain an underscore;
// a name like "a_b_es" therefore yields id "a" and language "b_es", which no
// configured language matches. ok is false when either half is empty.
func ParseSimulationRef(link string) (ref SimulationRef, ok bool) {
	name := link
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}

	id, language, found := strings.Cut(name, "_")
	if !found || id == "" || language == "" {
		return SimulationRef{}, false
	}
	return SimulationRef{ID: id, Language: language}, true
}

// Simulation is one catalog record. It is created by the metadata enricher
// and is not modified afterwards.
type Simulation struct {
	// ID is the simulation slug.
	ID string `json:"id"`

	// Language is the locale code of this record.
	Language string `json:"language"`

	// Title is the human readable simulation title.
	Title string `json:"title"`

	// Description is the free text description from the detail page.
	Description string `json:"description"`

	// Topics lists the topics in the order they appear on the detail page.
	Topics []string `json:"topics"`

	// Categories lists the category titles the simulation was found under.
	// Duplicates are removed; order follows crawl order.
	Categories []string `json:"categories"`
}

// Ref returns the identity of the simulation.
func (s Simulation) Ref() SimulationRef {
	return SimulationRef{ID: s.ID, Language: s.Language}
}

// SortSimulations orders a catalog by language, then by id.
func SortSimulations(sims []Simulation) {
	slices.SortFunc(sims, func(a, b Simulation) int {
		if c := strings.Compare(a.Language, b.Language); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
