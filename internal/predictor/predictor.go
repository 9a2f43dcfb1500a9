// Package predictor is the local-echo predictor hook a Buffer holds. Per
// spec.md §9 the repository's predictor is a non-functional stub — this
// reimplementation treats the whole subsystem as an identity pass-through,
// with no learning or speculative-echo logic. Shaped after the teacher
// pack's IoSwitch toggle (a bare enable/disable wrapper around a pass-
// through), not the fuller speculative-echo predictor found in one
// revision of the original predictor.c.
package predictor

// Predictor forwards bytes unchanged. Enabled records the -p/--predict CLI
// flag; Buffer passes every staged byte through Transform whether or not it
// is set, and Transform never mutates its input.
type Predictor struct {
	enabled bool
}

// New returns a Predictor. enabled mirrors -p/--predict; it has no effect
// on Transform's output, only on whether a caller chooses to call it.
func New(enabled bool) *Predictor {
	return &Predictor{enabled: enabled}
}

// Enabled reports whether the predictor was turned on at startup.
func (p *Predictor) Enabled() bool {
	return p.enabled
}

// Transform is the identity forwarder: it returns its input unchanged.
// Kept as a method (rather than inlining the pass-through at call sites)
// so a future, real predictor can replace this body without touching
// Buffer's data path.
func (p *Predictor) Transform(b []byte) []byte {
	return b
}
