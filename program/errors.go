package program

import "timingc/errs"

func newBuildError(op, msg string) *errs.E {
	logger.Debug().Str("op", op).Str("msg", msg).Log("rejected factory call")
	return errs.New(errs.BuildError, op, msg)
}

func newStateMismatch(op, msg string) *errs.E {
	return errs.New(errs.StateMismatch, op, msg)
}

func newChannelConflict(op, msg string) *errs.E {
	return errs.New(errs.ChannelConflict, op, msg)
}
