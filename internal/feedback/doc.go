// Package feedback selects call-center feedback rows from a grid.
//
// The package has three parts that are used in sequence for every
// submission:
//
//	1. Column resolution: locate the date and call-center columns in the
//	   header by case-insensitive substring match.
//	2. Date parsing: turn a raw cell into a calendar date using an ordered
//	   list of strategies, first success wins.
//	3. Row filtering: keep rows whose date lies in an inclusive interval and
//	   whose normalized center equals the selected one.
//
// Nothing here keeps state between calls. Column indexes are resolved
// again for every grid because the sheet layout can change between fetches.
package feedback
