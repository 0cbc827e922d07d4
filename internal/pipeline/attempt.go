// Package pipeline contains the extraction attempt combinator and the
// text cleanup transforms applied to scraped values.
//
// Every extraction strategy in the crawler is expressed as an Attempt:
// a pure function that either produces a value or reports a miss. The
// cascades in the scraper and media packages are ordered Attempt lists
// executed by First, which keeps each strategy independently testable.
package pipeline

// Attempt is one extraction strategy. It returns the extracted value
// and true on success, or the zero value and false on a miss. Attempts
// must not panic and must not treat a miss as an error.
type Attempt[T any] func() (T, bool)

// First runs attempts left to right and returns the first present
// value. A failing attempt never stops the cascade.
func First[T any](attempts ...Attempt[T]) (T, bool) {
	for _, attempt := range attempts {
		if attempt == nil {
			continue
		}
		if v, ok := attempt(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// FirstNonEmpty is First specialized to strings: whitespace-only
// results count as misses.
func FirstNonEmpty(attempts ...Attempt[string]) (string, bool) {
	for _, attempt := range attempts {
		if attempt == nil {
			continue
		}
		if v, ok := attempt(); ok && CleanText(v) != "" {
			return CleanText(v), true
		}
	}
	return "", false
}
