// Package control offers advisory release suggestions for a single
// reservoir, built the same dynamic-programming-over-a-discretized-state
// way the strategy package's oracle dispatcher plans a battery's state of
// charge. It never runs as part of Simulate and never mutates a
// RiverSystem — a suggestion is a hint a human operator or a calling
// script can feed back in through RiverSystem.SetAction, nothing more. The
// core simulator stays a pure forward model; this package is kept
// deliberately outside it.
package control

import (
	"fmt"
	"math"
)

// ReleaseSuggestion is one timestep of an advisory discharge plan.
type ReleaseSuggestion struct {
	Action float64 // suggested action signal in [0,1], same units Reservoir.step reads
}

// Params bounds the search: a storage range to discretize over and an
// action grid to search exhaustively per timestep, mirroring the battery
// oracle's SOC/power grids.
type Params struct {
	StorageSteps int // discretization of storage between minMm3 and maxMm3
	ActionSteps  int // discretization of the [0,1] action axis
}

// SuggestQminRelease computes a timestep-by-timestep release plan for a single
// reservoir that tries to hold discharge above minDischargeM3s whenever the
// seasonal requirement is active while maximizing a simple value proxy:
// price-weighted discharge minus a hard penalty for breaching the minimum.
// inflowM3s and priceEuroPerMWh must be the same length; minDischargeM3s
// gives the per-timestep requirement (0 where none applies).
func SuggestQminRelease(inflowM3s, priceEuroPerMWh, minDischargeM3s []float64, startStorageMm3, minStorageMm3, maxStorageMm3 float64, dtSeconds int, p Params) ([]ReleaseSuggestion, error) {
	n := len(inflowM3s)
	if n == 0 || len(priceEuroPerMWh) != n || len(minDischargeM3s) != n {
		return nil, fmt.Errorf("control: inflow/price/minDischarge must be equal, non-zero length")
	}
	if maxStorageMm3 <= minStorageMm3 {
		return nil, fmt.Errorf("control: maxStorageMm3 must exceed minStorageMm3")
	}
	storageSteps := p.StorageSteps
	if storageSteps < 2 {
		storageSteps = 50
	}
	actionSteps := p.ActionSteps
	if actionSteps < 1 {
		actionSteps = 10
	}

	storageToIdx := func(mm3 float64) int {
		if mm3 <= minStorageMm3 {
			return 0
		}
		if mm3 >= maxStorageMm3 {
			return storageSteps
		}
		f := (mm3 - minStorageMm3) / (maxStorageMm3 - minStorageMm3)
		return int(math.Round(f * float64(storageSteps)))
	}
	idxToStorage := func(idx int) float64 {
		f := float64(idx) / float64(storageSteps)
		return minStorageMm3 + f*(maxStorageMm3-minStorageMm3)
	}

	nStates := storageSteps + 1
	const negInf = -1e100
	dp := make([]float64, nStates)
	next := make([]float64, nStates)
	for i := range dp {
		dp[i] = negInf
	}
	dp[storageToIdx(startStorageMm3)] = 0

	choiceState := make([][]int, n)
	choiceAction := make([][]float64, n)
	for t := 0; t < n; t++ {
		choiceState[t] = make([]int, nStates)
		choiceAction[t] = make([]float64, nStates)
		for s := range choiceState[t] {
			choiceState[t][s] = -1
		}
	}

	actions := make([]float64, actionSteps+1)
	for k := 0; k <= actionSteps; k++ {
		actions[k] = float64(k) / float64(actionSteps)
	}

	for t := 0; t < n; t++ {
		for i := range next {
			next[i] = negInf
		}
		for sIdx := 0; sIdx < nStates; sIdx++ {
			if dp[sIdx] <= negInf/2 {
				continue
			}
			storage := idxToStorage(sIdx)
			for _, a := range actions {
				releaseM3s := a * maxReleaseM3s(storage, dtSeconds)
				newStorage := storage + inflowM3s[t]*float64(dtSeconds)/1e6 - releaseM3s*float64(dtSeconds)/1e6
				if newStorage < minStorageMm3 {
					newStorage = minStorageMm3
				}
				if newStorage > maxStorageMm3 {
					newStorage = maxStorageMm3
				}
				value := dp[sIdx] + releaseM3s*priceEuroPerMWh[t]
				if releaseM3s < minDischargeM3s[t] {
					value -= 1e6 // hard penalty, dwarfs any plausible price term
				}
				ns := storageToIdx(newStorage)
				if value > next[ns] {
					next[ns] = value
					choiceState[t][ns] = sIdx
					choiceAction[t][ns] = a
				}
			}
		}
		dp, next = next, dp
	}

	bestState, bestVal := 0, negInf
	for i, v := range dp {
		if v > bestVal {
			bestVal, bestState = v, i
		}
	}

	plan := make([]ReleaseSuggestion, n)
	cur := bestState
	for t := n - 1; t >= 0; t-- {
		plan[t] = ReleaseSuggestion{Action: choiceAction[t][cur]}
		if ps := choiceState[t][cur]; ps >= 0 {
			cur = ps
		}
	}
	return plan, nil
}

// maxReleaseM3s bounds how much a single timestep's action=1 release could
// plausibly move, proportionate to how much storage is actually available
// above the floor — a crude cap that keeps the search space physical
// without needing the reservoir's real outlet curves, which this advisory
// tool deliberately doesn't depend on.
func maxReleaseM3s(storageMm3 float64, dtSeconds int) float64 {
	if storageMm3 <= 0 {
		return 0
	}
	return storageMm3 * 1e6 / float64(dtSeconds)
}
