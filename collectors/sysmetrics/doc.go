// Package sysmetrics reads host resource usage for the dashboard: the
// tracked process's CPU and resident memory, disk capacity and total
// physical memory. It is backed by gopsutil so it works wherever gopsutil
// supports the host OS.
package sysmetrics
