// Package util provides small helpers shared across faultmock packages.
//
//   - DataKey normalizes dataFile references and rejects ones that escape
//     the data directory
//   - TruncateBody caps request bodies for logging
package util
