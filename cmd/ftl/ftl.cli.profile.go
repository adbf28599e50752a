package main

import (
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

var profileModes = map[string]func(*profile.Profile){
	ProfileModeCPU: profile.CPUProfile,
	ProfileModeMem: profile.MemProfile,
}

// startProfile starts the profiler for mode and returns its stop function.
// An empty or unknown mode is a no-op.
func startProfile(mode, dir string, logger *zap.Logger) (stop func()) {
	fn, ok := profileModes[mode]
	if !ok {
		return func() {}
	}

	logger.Debug(LogMsgProfileStart, zap.String(LogFieldMode, mode), zap.String(LogFieldDir, dir))
	p := profile.Start(fn, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook)

	return func() {
		p.Stop()
		logger.Debug(LogMsgProfileStop, zap.String(LogFieldMode, mode), zap.String(LogFieldDir, dir))
	}
}
