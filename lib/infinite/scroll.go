// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package infinite

// DefaultThresholdFraction is the fraction of the visible height used
// as the bottom threshold when neither Lines nor Fraction is set.
const DefaultThresholdFraction = 0.2

// Metrics describes a scroll container. All values are in lines.
type Metrics struct {
	ScrollHeight int
	ScrollTop    int
	ClientHeight int
}

// Remaining returns the distance between the bottom of the visible
// area and the end of the content.
func (metrics Metrics) Remaining() int {
	return metrics.ScrollHeight - metrics.ScrollTop - metrics.ClientHeight
}

// Threshold is the bottom distance below which more rows are fetched.
// Lines, when positive, is an absolute distance; otherwise Fraction of
// the client height is used.
type Threshold struct {
	Lines    int
	Fraction float64
}

// Distance returns the threshold distance for a container of the given
// client height.
func (threshold Threshold) Distance(clientHeight int) float64 {
	if threshold.Lines > 0 {
		return float64(threshold.Lines)
	}
	fraction := threshold.Fraction
	if fraction <= 0 {
		fraction = DefaultThresholdFraction
	}
	return float64(clientHeight) * fraction
}

// Pager exposes the pagination state the controller gates on.
type Pager interface {
	State() State
}

// Controller triggers a bottom-reached callback from scroll events.
// It is driven from the UI event loop and is not safe for concurrent
// use.
type Controller struct {
	pager           Pager
	threshold       Threshold
	onBottomReached func()

	// pending is set after a trigger and cleared once a fetch settles,
	// the generation changes, or the scroll leaves the threshold zone.
	pending           bool
	pendingSettled    uint64
	pendingGeneration uint64

	// A failed fetch is retried only once the scroll position has
	// moved away from where the failure was first seen.
	failureSeen    bool
	failedSettled  uint64
	failedTop      int
	movedAfterFail bool
}

// NewController creates a controller gating on pager's state.
func NewController(pager Pager, threshold Threshold, onBottomReached func()) *Controller {
	return &Controller{
		pager:           pager,
		threshold:       threshold,
		onBottomReached: onBottomReached,
	}
}

// Threshold returns the configured threshold.
func (controller *Controller) Threshold() Threshold {
	return controller.threshold
}

// OnScroll evaluates one scroll event and reports whether the
// callback was invoked. The callback runs when the pager is idle, has
// a next page, and the remaining distance is below the threshold. It
// runs at most once per crossing of the threshold. After a failed
// fetch it runs again only once the user has scrolled.
func (controller *Controller) OnScroll(metrics Metrics) bool {
	state := controller.pager.State()
	inZone := float64(metrics.Remaining()) < controller.threshold.Distance(metrics.ClientHeight)

	if state.Err != nil {
		if !controller.failureSeen || controller.failedSettled != state.Settled {
			controller.failureSeen = true
			controller.failedSettled = state.Settled
			controller.failedTop = metrics.ScrollTop
			controller.movedAfterFail = false
		}
		if metrics.ScrollTop != controller.failedTop {
			controller.movedAfterFail = true
		}
		if !controller.movedAfterFail {
			if !inZone {
				controller.pending = false
			}
			return false
		}
	}

	if controller.pending {
		settled := state.Settled != controller.pendingSettled ||
			state.Generation != controller.pendingGeneration
		if inZone && !settled {
			return false
		}
		controller.pending = false
	}

	if !inZone || state.IsFetching || !state.HasNextPage {
		return false
	}

	controller.pending = true
	controller.pendingSettled = state.Settled
	controller.pendingGeneration = state.Generation
	if controller.onBottomReached != nil {
		controller.onBottomReached()
	}
	return true
}

// Rearm forgets a pending trigger so the next in-zone scroll event may
// fire again. Used after an explicit retry or reset.
func (controller *Controller) Rearm() {
	controller.pending = false
}
