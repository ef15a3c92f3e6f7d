// Package remediation restores the node agent without a reboot.
//
// After a runtime upgrade the kubelet, which runs as a container, sometimes
// comes back without its plugin sockets. The Loop checks for those artifacts,
// restarts the agent and waits a fixed delay, a bounded number of times.
// Empirically the sockets only reappear after the second restart, hence the
// default budget of two attempts with a sixty second settle time.
package remediation
