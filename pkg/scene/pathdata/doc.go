// Package pathdata parses SVG path data (the "d" attribute) into commands.
//
// The parser accepts the full command alphabet (M L H V C S Q T A Z, in
// absolute and relative form), implicit command repetition, compact number
// syntax such as "1-2" or ".5.5", and compact arc flags ("a1 1 0 01 5 5").
//
// Callers that only need the horizontal extent of a path use [XExtent],
// which tracks the pen position through relative commands and reports
// whether the extent could be determined instead of failing.
package pathdata
