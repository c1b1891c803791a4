// Package filter provides plugins that reject events.
//
// A filter returns eventflow.FilterFailed when its predicate does not hold;
// the scheduler then skips every later plugin for that event. Invalid
// settings are rejected when the filter is constructed, never per event.
//
//   - CountFilter: object multiplicities within selection bins
//   - CutFilter: a boolean expression over upstream quantities
//   - DatasetSelector: whole datasets by source ID
//   - EventIDFilter: event lists per input file
//   - RemainderFilter: deterministic sub-sampling by event number
package filter
