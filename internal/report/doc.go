// Package report assembles and persists segment screening results.
//
// A Report is an ordered list of Records, one per segment, plus metadata
// about the run that produced it. Save writes the CSV artifact
// (segment,text,label) atomically under an advisory lock; Read loads one
// back after checking its header.
//
// Save failures are returned as *SaveError. Permission problems wrap
// services.ErrPermissionDenied so callers can offer another destination
// while keeping the in-memory Report.
package report
