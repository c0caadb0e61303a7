package program

// SyncMaster inserts a zero-duration synchronization marker that, once
// compiled, triggers every slave board waiting on the same code. It does
// not alter channel state; at is the channel's state both before and after
// the marker.
func SyncMaster(ch Channel, at State, code uint8) (*Morphism, error) {
	if at.Kind != ch.Kind {
		return nil, newBuildError("program.SyncMaster", "state kind does not match channel kind").WithChannel(ch.String())
	}
	op, err := newAtomicOp(ch, OpSyncMaster, at, at, 0, SyncParams{Code: code})
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}

// SyncSlave inserts a zero-duration marker that blocks the board until the
// matching SyncMaster code is triggered.
func SyncSlave(ch Channel, at State, code uint8) (*Morphism, error) {
	if at.Kind != ch.Kind {
		return nil, newBuildError("program.SyncSlave", "state kind does not match channel kind").WithChannel(ch.String())
	}
	op, err := newAtomicOp(ch, OpSyncSlave, at, at, 0, SyncParams{Code: code})
	if err != nil {
		return nil, err
	}
	return singleOpMorphism(ch, op)
}
