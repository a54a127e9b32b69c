// Package format turns journey data into the text fragments of a calendar
// event: transport glyphs, delay-adjusted times, stopover lists, deep links
// to companion services and the remarks section.
//
// Every function is pure. The only side effect is a warning logged when a
// remark matches no classification rule.
package format
