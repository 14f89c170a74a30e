/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package pipeline

// State is a step of an analysis: Pending, LocalReady, then one of the
// terminal states Augmented or Fallback.
type State string

// Analysis states.
const (
	StatePending    State = "pending"
	StateLocalReady State = "local_ready"
	StateAugmented  State = "augmented"
	StateFallback   State = "fallback"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateAugmented || s == StateFallback
}
