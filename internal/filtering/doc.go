// Package filtering selects bundles by glob patterns on their names.
//
// A bundle matches a pattern when its title or its declared name does. Matching
// ignores case, and '*' also matches across slashes, so "revanced/*" selects
// every pull request bundle of that organization.
//
// # Filtering Logic
//
//  1. If exclude patterns are specified and match -> exclude (precedence)
//  2. If include patterns are specified and match -> include
//  3. If include patterns are specified but no match -> exclude
//  4. If only exclude patterns are specified and no match -> include
//  5. If no patterns are specified -> include
package filtering
