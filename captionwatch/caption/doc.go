// Package caption holds the pure half of the caption bridge: turning a
// snapshot of the caption container into a normalized utterance and
// deciding whether that utterance is new enough to forward.
//
// Nothing in this package talks to a browser or the network; the observer
// and pipeline packages feed it container HTML and act on its answers.
package caption
