// Package normalize establishes the absorption edge of a spectrum.
//
// [Normalize] validates the samples, selects e0 (explicit override, the
// spectrum's own estimate, or [FindE0]), fits a line to the pre-edge region
// and a low-order polynomial to the post-edge region, and scales the
// absorption by the edge step, the difference of the two baselines at e0.
package normalize
