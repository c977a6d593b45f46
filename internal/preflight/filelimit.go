package preflight

import (
	"fmt"
	"syscall"
)

const (
	// MinFileDescriptors is the soft limit below which doctor warns.
	MinFileDescriptors = 1024

	// descriptorReserve covers descriptors held outside file scans: the
	// walker's open directories, stdio, the log file and the history
	// database.
	descriptorReserve = 32
)

// CheckFileDescriptors compares RLIMIT_NOFILE with what a search at the
// configured concurrency keeps open.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: true,
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	return c.evaluateDescriptors(uint64(rLimit.Cur))
}

func (c *Checker) evaluateDescriptors(limit uint64) CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: true,
	}
	needed := uint64(c.concurrency) + descriptorReserve
	result.Message = fmt.Sprintf("%d (concurrency %d needs %d)", limit, c.concurrency, needed)

	switch {
	case limit < needed:
		result.Status = StatusFail
		result.Details = fmt.Sprintf("Lower --concurrency or run 'ulimit -n %d'", max(needed, MinFileDescriptors))
	case limit < MinFileDescriptors:
		result.Status = StatusWarn
		result.Details = fmt.Sprintf("Run 'ulimit -n %d' to leave room for larger searches", MinFileDescriptors)
	default:
		result.Status = StatusPass
	}
	return result
}
