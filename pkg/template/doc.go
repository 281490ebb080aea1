// Package template resolves {{...}} placeholders inside response values.
// It supports generated values like {{uuid}} and request data like
// {{params.id}} or {{body.user.name}}.
//
// # Built-in Variables
//
// Time-related:
//   - {{timestamp}} - Current UTC time, RFC 3339 with milliseconds
//   - {{now}} - Alias for {{timestamp}}
//   - {{date}} - Current UTC date as YYYY-MM-DD
//
// Random values:
//   - {{uuid}} - Random UUID v4
//   - {{randomInt}} - Random integer in [1, 1000]
//   - {{randomEmail}} - Random email address
//
// Each occurrence is generated anew, so "{{uuid}}-{{uuid}}" yields two
// different identifiers.
//
// # Request Variables
//
// Dotted paths read the request snapshot. The first segment is the source:
//   - {{params.name}} - Path parameter
//   - {{query.name}} - Query parameter
//   - {{headers.name}} - Request header (case-insensitive)
//   - {{body.field.nested}} - Parsed request body field
//
// Numeric segments index into lists: {{body.items.0.id}}.
//
// # Substitution Rules
//
// A string that is exactly one placeholder is replaced by the raw value, so
// numbers, lists and objects keep their type. Anywhere else the value's text
// form is spliced in. Placeholders that do not resolve are left as written.
package template
