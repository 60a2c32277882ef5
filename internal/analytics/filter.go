package analytics

import (
	"sort"

	"subscli/pkg/contracts/domain"
)

// Filter holds the three facet selections as sets. A record passes when
// every facet set contains the record's value; an empty set passes
// nothing.
type Filter struct {
	regions   map[string]struct{}
	planTypes map[string]struct{}
	statuses  map[string]struct{}
}

// NewFilter builds a filter from a selection. Selection values are
// normalized the same way the cleaner normalizes record fields, so
// callers may pass padded input.
func NewFilter(selection domain.FilterSelection) *Filter {
	return &Filter{
		regions:   toSet(selection.Regions),
		planTypes: toSet(selection.PlanTypes),
		statuses:  toSet(selection.Statuses),
	}
}

// Match reports whether the record passes all three facets.
func (f *Filter) Match(r *domain.SubscriptionRecord) bool {
	if _, ok := f.regions[r.Region]; !ok {
		return false
	}
	if _, ok := f.planTypes[r.PlanType]; !ok {
		return false
	}
	_, ok := f.statuses[r.Status]
	return ok
}

// Apply returns the records that pass the filter, preserving input order.
func (f *Filter) Apply(records []domain.SubscriptionRecord) []domain.SubscriptionRecord {
	filtered := make([]domain.SubscriptionRecord, 0, len(records))
	for i := range records {
		if f.Match(&records[i]) {
			filtered = append(filtered, records[i])
		}
	}
	return filtered
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[domain.NormalizeCategory(v)] = struct{}{}
	}
	return set
}

// ComputeFacets collects the distinct values observed per facet, sorted
// ascending. An empty string is a real facet value when records carry it;
// leaving it out would make such rows unselectable. Slices are always
// non-nil.
func ComputeFacets(records []domain.SubscriptionRecord) domain.FacetOptions {
	regions := make(map[string]struct{})
	planTypes := make(map[string]struct{})
	statuses := make(map[string]struct{})

	for i := range records {
		regions[records[i].Region] = struct{}{}
		planTypes[records[i].PlanType] = struct{}{}
		statuses[records[i].Status] = struct{}{}
	}

	return domain.FacetOptions{
		Regions:   sortedKeys(regions),
		PlanTypes: sortedKeys(planTypes),
		Statuses:  sortedKeys(statuses),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
