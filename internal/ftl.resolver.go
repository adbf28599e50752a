package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Resolution is the outcome of qualifying a requested tag name.
type Resolution[H any] struct {
	Path    string // Registered path that was selected
	Handler H
	Score   int  // Accuracy score, zero for an exact match
	Exact   bool // True when the full nested path was registered
}

// SplitCompound splits "head:tail" on its first colon.
// A name with a leading colon, or without any colon, is not compound.
func SplitCompound(name string) (head, tail string, ok bool) {
	idx := strings.IndexByte(name, CharColon)
	if idx <= 0 {
		return name, StringValueEmpty, false
	}
	return name[:idx], name[idx+1:], true
}

// Accuracy scores how well candidate fits the active nesting full, where the
// last segment of full is the requested tag name.
//
// Segments are compared from the innermost end. A match drops the last
// segment of both, a mismatch drops only the last segment of full and costs
// one point. If full runs out before candidate, the candidate does not fit.
// The skip penalty dominates; among equally penalized candidates the longer
// one scores higher.
func Accuracy(candidate, full []string) (int, bool) {
	c, f := len(candidate), len(full)
	penalty := 0
	for c > 0 && f > 0 {
		if candidate[c-1] == full[f-1] {
			c--
			f--
			continue
		}
		f--
		penalty++
	}
	if c > 0 {
		return 0, false
	}
	return (AccuracyBase-penalty)*AccuracyDepthWeight + len(candidate), true
}

// Qualify picks the handler for name under the active stack.
//
// An exact registration of the full nested path wins outright. Otherwise
// every path whose last segment is name is scored with Accuracy and the best
// fit wins; on equal scores the earlier registration wins.
func (r *Registry[H]) Qualify(name string, stack []string) (Resolution[H], bool) {
	full := make([]string, 0, len(stack)+1)
	full = append(full, stack...)
	full = append(full, name)
	fullPath := JoinPath(full)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[fullPath]; ok {
		r.logger.Debug(LogMsgQualifyExact, zap.String(LogFieldPath, fullPath))
		return Resolution[H]{Path: fullPath, Handler: entry.handler, Exact: true}, true
	}

	var (
		best       *registryEntry[H]
		bestPath   string
		bestScore  int
		candidates int
	)
	for _, path := range r.order {
		entry := r.entries[path]
		if entry.segments[len(entry.segments)-1] != name {
			continue
		}
		candidates++
		score, fits := Accuracy(entry.segments, full)
		if !fits {
			continue
		}
		// r.order is rank order, so a strict comparison keeps the earliest.
		if best == nil || score > bestScore {
			best, bestPath, bestScore = entry, path, score
		}
	}

	if candidates == 0 {
		r.logger.Debug(LogMsgQualifyNoCandiate, zap.String(LogFieldName, name), zap.String(LogFieldNesting, fullPath))
		var zero Resolution[H]
		return zero, false
	}
	if best == nil {
		r.logger.Debug(LogMsgQualifyNoMatch,
			zap.String(LogFieldName, name),
			zap.String(LogFieldNesting, fullPath),
			zap.Int(LogFieldCandidates, candidates))
		var zero Resolution[H]
		return zero, false
	}

	r.logger.Debug(LogMsgQualifyPartial,
		zap.String(LogFieldPath, bestPath),
		zap.String(LogFieldNesting, fullPath),
		zap.Int(LogFieldScore, bestScore))
	return Resolution[H]{Path: bestPath, Handler: best.handler, Score: bestScore}, true
}
