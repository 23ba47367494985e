package repository

// VAQuery is a lazy, composable description of a record query. Callers build
// it up (scope, date bounds, duplicate filter) and nothing touches the store
// until ListVAs/CountVAs executes it; the same value can be executed any
// number of times.
type VAQuery struct {
	// Scoped marks the query as location-restricted. When true, only records
	// whose location_id is in LocationIDs match; an empty LocationIDs then
	// matches nothing. When false, all locations match.
	Scoped      bool
	LocationIDs []string

	// Death-date bounds compare against the stored Id10023 string (ISO
	// "YYYY-MM-DD" or the unknown marker "dk"). "dk" sorts above any ISO
	// date, so an upper bound excludes unknown dates while a lower bound
	// alone does not; this mirrors the ingestion convention and is not
	// re-interpreted here.
	DeathDateLower string
	DeathDateUpper string

	// Duplicate filters on the duplicate flag when non-nil.
	Duplicate *bool

	// IncludeDeleted includes soft-deleted records (cleanup tooling only).
	IncludeDeleted bool
}

// AtLocations restricts the query to the given location ids.
func (q VAQuery) AtLocations(ids []string) VAQuery {
	q.Scoped = true
	q.LocationIDs = ids
	return q
}

// Between applies optional death-date bounds; "" leaves a bound open.
func (q VAQuery) Between(lower, upper string) VAQuery {
	q.DeathDateLower = lower
	q.DeathDateUpper = upper
	return q
}

// ExcludeDuplicates keeps only canonical records.
func (q VAQuery) ExcludeDuplicates() VAQuery {
	f := false
	q.Duplicate = &f
	return q
}

// OnlyDuplicates keeps only records flagged duplicate.
func (q VAQuery) OnlyDuplicates() VAQuery {
	t := true
	q.Duplicate = &t
	return q
}
