// Package maintenance runs one maintenance pass on the local node: update all
// packages, decide whether to reboot, then either schedule the reboot or, for
// the staleness-only policy, make sure the node agent came back healthy.
//
// A pass is strictly sequential and assumes it is the only one on the host;
// the instance guard refuses to start next to another pass.
package maintenance
