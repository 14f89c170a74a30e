/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package augment

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/humaidq/hemoscan/cbc"
)

type limited struct {
	next    Augmenter
	limiter *rate.Limiter
}

// Limited throttles calls to next. A call that cannot get a token within
// DefaultTimeout, or before its context ends, fails with ErrUnavailable
// instead of being retried later.
func Limited(next Augmenter, limiter *rate.Limiter) Augmenter {
	if limiter == nil {
		return next
	}
	return &limited{next: next, limiter: limiter}
}

func (l *limited) Augment(ctx context.Context, sample cbc.Sample, d cbc.Diagnosis) (Guidance, error) {
	waitCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	if err := l.limiter.Wait(waitCtx); err != nil {
		return Guidance{}, unavailable("rate limit", err)
	}
	return l.next.Augment(ctx, sample, d)
}
