// Package storage provides an optional history log for the controller.
//
// It currently supports:
//   - Weather refresh appends (stations, medians)
//   - Stock quote appends
//
// The display loop never reads this data back; it exists for operators.
package storage
