// Package dockercmd understands docker command lines and the text docker
// prints while running them.
//
// Parse classifies an argv (build, push, pull, tag, anything else) and pulls
// out the image reference; OperationID turns that into the stable key the
// progress tracker stores records under. ParseLine recognises the handful of
// output shapes worth tracking: classic "Step N/M" builder steps, BuildKit
// "[N/M]" steps, per-layer push/pull states, push digests, and the final
// image id.
package dockercmd
