package browser

import "github.com/oloid-qa/e2e/internal/config"

// ArtifactPolicy decides which failure artifacts an attempt records and keeps.
// Attempts are numbered from 1; attempt 2 is the first retry.
type ArtifactPolicy struct {
	Screenshot string // off | on | only-on-failure
	Video      string // off | on | retain-on-failure
	Trace      string // off | on | on-first-retry | retain-on-failure
}

// PolicyFromConfig reads the artifact modes from cfg.
func PolicyFromConfig(cfg *config.Config) ArtifactPolicy {
	return ArtifactPolicy{Screenshot: cfg.Screenshot, Video: cfg.Video, Trace: cfg.Trace}
}

// TakeScreenshot reports whether to capture the page when an attempt ends.
func (p ArtifactPolicy) TakeScreenshot(failed bool) bool {
	switch p.Screenshot {
	case config.ModeOn:
		return true
	case config.ModeOnlyOnFailure:
		return failed
	default:
		return false
	}
}

// RecordVideo reports whether contexts are created with video recording.
func (p ArtifactPolicy) RecordVideo() bool {
	return p.Video == config.ModeOn || p.Video == config.ModeRetainOnFailure
}

// KeepVideo reports whether a recorded video survives the attempt.
func (p ArtifactPolicy) KeepVideo(failed bool) bool {
	switch p.Video {
	case config.ModeOn:
		return true
	case config.ModeRetainOnFailure:
		return failed
	default:
		return false
	}
}

// StartTrace reports whether tracing runs during attempt.
func (p ArtifactPolicy) StartTrace(attempt int) bool {
	switch p.Trace {
	case config.ModeOn, config.ModeRetainOnFailure:
		return true
	case config.ModeOnFirstRetry:
		return attempt == 2
	default:
		return false
	}
}

// KeepTrace reports whether the trace of attempt is written to disk.
func (p ArtifactPolicy) KeepTrace(attempt int, failed bool) bool {
	if !p.StartTrace(attempt) {
		return false
	}
	if p.Trace == config.ModeRetainOnFailure {
		return failed
	}
	return true
}
