/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cbc

// RangeStatus places a reading relative to its reference range.
type RangeStatus string

// Range statuses.
const (
	StatusLow    RangeStatus = "low"
	StatusNormal RangeStatus = "normal"
	StatusHigh   RangeStatus = "high"
)

// MarkerStatus is one row of the marker profile attached to a diagnosis.
type MarkerStatus struct {
	Marker Marker      `json:"marker"`
	Value  float64     `json:"value"`
	Unit   string      `json:"unit"`
	Range  Range       `json:"range"`
	Status RangeStatus `json:"status"`
}

func statusOf(r Range, v float64) RangeStatus {
	switch {
	case v < r.Low:
		return StatusLow
	case v > r.High:
		return StatusHigh
	}
	return StatusNormal
}

// profile is informational and never feeds back into classification.
func (e *Engine) profile(s Sample) []MarkerStatus {
	out := make([]MarkerStatus, 0, len(Markers))
	for _, m := range Markers {
		r := e.ranges[m][s.Sex]
		v := s.Value(m)
		out = append(out, MarkerStatus{
			Marker: m,
			Value:  v,
			Unit:   m.Unit(),
			Range:  r,
			Status: statusOf(r, v),
		})
	}
	return out
}
