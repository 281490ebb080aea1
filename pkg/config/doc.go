// Package config loads faultmock's configuration.
//
// Two kinds of configuration live here:
//
//   - Settings: how the server runs (listen address, where routes and data
//     come from, logging). Read from an optional settings file, FAULTMOCK_*
//     environment variables and command-line flags.
//   - Route files: JSON or YAML documents holding route definitions.
//
// A route file holds a single route, a list of routes, or a collection with
// shared defaults:
//
//	defaults:
//	  latency: {min: 50, max: 200}
//	  timeout: 3000
//	routes:
//	  - method: GET
//	    path: /users/:id
//	    defaultResponse:
//	      statusCode: 200
//	      body: {id: "{{params.id}}"}
//
// Route files are checked against an embedded JSON Schema before they are
// compiled, and ${VAR} or ${VAR:-default} references are expanded from the
// environment first.
package config
