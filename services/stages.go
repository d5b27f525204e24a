package services

import "github.com/rs/zerolog"

// stage is where a create/update request with images currently is:
//
//	validating -> uploading -> persisting -> done
//	uploading | persisting -> rolling_back -> failed
type stage string

const (
	stageValidating  stage = "validating"
	stageUploading   stage = "uploading"
	stagePersisting  stage = "persisting"
	stageRollingBack stage = "rolling_back"
	stageDone        stage = "done"
	stageFailed      stage = "failed"
)

type tracker struct {
	logger zerolog.Logger
	cur    stage
}

func track(logger zerolog.Logger, op string) *tracker {
	return &tracker{logger: logger.With().Str("op", op).Logger(), cur: stageValidating}
}

func (t *tracker) to(next stage) {
	t.logger.Debug().Str("from", string(t.cur)).Str("to", string(next)).Msg("stage")
	t.cur = next
}

func (t *tracker) fail(err error) {
	if t.cur == stageUploading || t.cur == stagePersisting {
		t.to(stageRollingBack)
	}
	t.logger.Warn().Err(err).Str("at", string(t.cur)).Msg("request failed")
	t.cur = stageFailed
}
