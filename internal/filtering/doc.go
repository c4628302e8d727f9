// Package filtering narrows an aggregated website result down to the
// records a caller asked for.
//
// Name and CMS filters:
//
//   - NameFilter matches the website name against glob patterns
//     ("shop-*", "*.ch", "site-[0-9]")
//   - CMSFilter matches the "cms" field reported by the satellite,
//     ignoring case ("drupal" matches "Drupal")
//
// Both follow the same precedence rules:
//
//  1. A match in the exclude list drops the record
//  2. With an include list, the record is kept only if it matches an entry
//  3. Without an include list, every record that was not excluded is kept
//
// Version ranges on "cms_version" and "php_version" are checked with
// Masterminds/semver. Versions that do not parse never satisfy a range.
//
// A record has to pass every filter. Filtering never modifies the records
// it keeps and preserves their order.
package filtering
