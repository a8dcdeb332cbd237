package fst

// util/fst/FSTEnum.java

/* Input-specific label access of an FST enum. */
type enumLabels interface {
	// label of the seek target at the current depth, or END_LABEL
	targetLabel() int
	currentLabel() int
	setCurrentLabel(label int)
	// makes room for the current input at depth upto
	grow()
}

/*
Can next() and advance() through the terms in an FST

NOTE: the enum shares the FST's outputs; it is not safe for use by
more than one goroutine at a time.
*/
type fstEnum[T any] struct {
	fst *FST[T]

	arcs []*Arc[T]
	// outputs are cumulative
	output   []T
	noOutput T

	fstReader BytesReader

	upto         int
	targetLength int

	labels enumLabels
}

func newFSTEnum[T any](labels enumLabels, fst *FST[T]) *fstEnum[T] {
	e := &fstEnum[T]{
		fst:       fst,
		arcs:      make([]*Arc[T], 10),
		output:    make([]T, 10),
		noOutput:  fst.outputs.NoOutput(),
		fstReader: fst.BytesReader(),
		labels:    labels,
	}
	fst.FirstArc(e.getArc(0))
	e.output[0] = e.noOutput
	return e
}

/* Rewinds enum state to match the shared prefix between current term and target term */
func (e *fstEnum[T]) rewindPrefix() error {
	if e.upto == 0 {
		e.upto = 1
		_, err := e.fst.ReadFirstTargetArc(e.getArc(0), e.getArc(1), e.fstReader)
		return err
	}
	currentLimit := e.upto
	e.upto = 1
	for e.upto < currentLimit && e.upto <= e.targetLength+1 {
		cmp := e.labels.currentLabel() - e.labels.targetLabel()
		if cmp < 0 {
			// seek forward
			break
		} else if cmp > 0 {
			// seek backwards -- reset this arc to the first arc
			_, err := e.fst.ReadFirstTargetArc(e.getArc(e.upto-1), e.getArc(e.upto), e.fstReader)
			return err
		}
		e.upto++
	}
	return nil
}

func (e *fstEnum[T]) doNext() error {
	if e.upto == 0 {
		e.upto = 1
		if _, err := e.fst.ReadFirstTargetArc(e.getArc(0), e.getArc(1), e.fstReader); err != nil {
			return err
		}
	} else {
		// pop
		for e.arcs[e.upto].IsLast() {
			e.upto--
			if e.upto == 0 {
				return nil
			}
		}
		if _, err := e.fst.ReadNextArc(e.arcs[e.upto], e.fstReader); err != nil {
			return err
		}
	}
	return e.pushFirst()
}

/*
Matches arc, the arc at depth upto whose label equals the target
label, and moves one level down. Returns the next arc to scan, or nil
once the end label was matched.
*/
func (e *fstEnum[T]) descend(arc *Arc[T], targetLabel int) (*Arc[T], error) {
	e.output[e.upto] = e.fst.outputs.Add(e.output[e.upto-1], arc.Output)
	if targetLabel == END_LABEL {
		return nil, nil
	}
	e.labels.setCurrentLabel(arc.Label)
	e.incr()
	return e.fst.ReadFirstTargetArc(arc, e.getArc(e.upto), e.fstReader)
}

/*
Seeks to smallest term that's >= target. Positions past the last
term leave upto at 0.
*/
func (e *fstEnum[T]) doSeekCeil() error {
	// Save time by starting at the end of the shared prefix b/w our
	// current term & the target:
	if err := e.rewindPrefix(); err != nil {
		return err
	}
	arc := e.getArc(e.upto)
	var err error
	// Now scan forward, matching the new suffix of the target
	for arc != nil {
		targetLabel := e.labels.targetLabel()
		if arc.bytesPerArc != 0 && arc.Label != END_LABEL {
			// Arcs are in an array
			in := e.fst.BytesReader()
			switch arc.nodeFlags {
			case ARCS_FOR_DIRECT_ADDRESSING:
				arc, err = e.doSeekCeilArrayDirectAddressing(arc, targetLabel, in)
			case ARCS_FOR_BINARY_SEARCH:
				arc, err = e.doSeekCeilArrayPacked(arc, targetLabel, in)
			default:
				assert(arc.nodeFlags == ARCS_FOR_CONTINUOUS)
				arc, err = e.doSeekCeilArrayContinuous(arc, targetLabel, in)
			}
		} else {
			arc, err = e.doSeekCeilList(arc, targetLabel)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *fstEnum[T]) doSeekCeilArrayContinuous(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	targetIndex := targetLabel - arc.firstLabel
	if targetIndex >= arc.numArcs {
		return nil, e.rollbackToLastForkThenPush()
	}
	if targetIndex < 0 {
		if _, err := e.fst.ReadArcByContinuous(arc, in, 0); err != nil {
			return nil, err
		}
		assert(arc.Label > targetLabel)
		return nil, e.pushFirst()
	}
	if _, err := e.fst.ReadArcByContinuous(arc, in, targetIndex); err != nil {
		return nil, err
	}
	assert(arc.Label == targetLabel)
	return e.descend(arc, targetLabel)
}

func (e *fstEnum[T]) doSeekCeilArrayDirectAddressing(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	// The array is addressed directly by label, with presence bits to
	// compute the actual arc offset.
	targetIndex := targetLabel - arc.firstLabel
	if targetIndex >= arc.numArcs {
		return nil, e.rollbackToLastForkThenPush()
	}
	if targetIndex < 0 {
		targetIndex = -1
	} else {
		present, err := isArcBitSet(targetIndex, arc, in)
		if err != nil {
			return nil, err
		}
		if present {
			if _, err = e.fst.ReadArcByDirectAddressing(arc, in, targetIndex); err != nil {
				return nil, err
			}
			assert(arc.Label == targetLabel)
			return e.descend(arc, targetLabel)
		}
	}
	// Not found, return the next arc (ceil).
	ceilIndex, err := nextArcBitSet(targetIndex, arc, in)
	if err != nil {
		return nil, err
	}
	assert(ceilIndex != -1)
	if _, err = e.fst.ReadArcByDirectAddressing(arc, in, ceilIndex); err != nil {
		return nil, err
	}
	assert(arc.Label > targetLabel)
	return nil, e.pushFirst()
}

func (e *fstEnum[T]) doSeekCeilArrayPacked(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	// The array is packed -- use binary search to find the target.
	idx, err := binarySearch(e.fst, arc, targetLabel)
	if err != nil {
		return nil, err
	}
	if idx >= 0 {
		// Match
		if _, err = e.fst.ReadArcByIndex(arc, in, idx); err != nil {
			return nil, err
		}
		assert(arc.arcIdx == idx)
		assert2(arc.Label == targetLabel, "arc.label=%v vs targetLabel=%v mid=%v", arc.Label, targetLabel, idx)
		return e.descend(arc, targetLabel)
	}
	idx = -1 - idx
	if idx == arc.numArcs {
		// Dead end
		if _, err = e.fst.ReadArcByIndex(arc, in, idx-1); err != nil {
			return nil, err
		}
		assert(arc.IsLast())
		// Dead end (target is after the last arc);
		// rollback to last fork then push
		return nil, e.rollbackToLastForkThenPush()
	}
	// Ceiling - arc with least higher label
	if _, err = e.fst.ReadArcByIndex(arc, in, idx); err != nil {
		return nil, err
	}
	assert(arc.Label > targetLabel)
	return nil, e.pushFirst()
}

func (e *fstEnum[T]) doSeekCeilList(arc *Arc[T], targetLabel int) (*Arc[T], error) {
	// Arcs are not array'd -- must do linear scan:
	switch {
	case arc.Label == targetLabel:
		// recurse
		return e.descend(arc, targetLabel)
	case arc.Label > targetLabel:
		return nil, e.pushFirst()
	case arc.IsLast():
		// Dead end (target is after the last arc);
		// rollback to last fork then push
		return nil, e.rollbackToLastForkThenPush()
	}
	// keep scanning
	return e.fst.ReadNextArc(arc, e.fstReader)
}

func (e *fstEnum[T]) rollbackToLastForkThenPush() error {
	e.upto--
	for e.upto != 0 {
		prevArc := e.getArc(e.upto)
		if !prevArc.IsLast() {
			if _, err := e.fst.ReadNextArc(prevArc, e.fstReader); err != nil {
				return err
			}
			return e.pushFirst()
		}
		e.upto--
	}
	return nil
}

/*
Seeks to largest term that's <= target. Positions before the first
term leave upto at 0.
*/
func (e *fstEnum[T]) doSeekFloor() error {
	// Save CPU by starting at the end of the shared prefix b/w our
	// current term & the target:
	if err := e.rewindPrefix(); err != nil {
		return err
	}
	arc := e.getArc(e.upto)
	var err error
	// Now scan forward, matching the new suffix of the target
	for arc != nil {
		targetLabel := e.labels.targetLabel()
		if arc.bytesPerArc != 0 && arc.Label != END_LABEL {
			// Arcs are in an array
			in := e.fst.BytesReader()
			switch arc.nodeFlags {
			case ARCS_FOR_DIRECT_ADDRESSING:
				arc, err = e.doSeekFloorArrayDirectAddressing(arc, targetLabel, in)
			case ARCS_FOR_BINARY_SEARCH:
				arc, err = e.doSeekFloorArrayPacked(arc, targetLabel, in)
			default:
				arc, err = e.doSeekFloorContinuous(arc, targetLabel, in)
			}
		} else {
			arc, err = e.doSeekFloorList(arc, targetLabel)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *fstEnum[T]) doSeekFloorContinuous(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	targetIndex := targetLabel - arc.firstLabel
	switch {
	case targetIndex < 0:
		// Before first arc.
		return e.backtrackToFloorArc(arc, targetLabel, in)
	case targetIndex >= arc.numArcs:
		// After last arc.
		if _, err := e.fst.ReadLastArcByContinuous(arc, in); err != nil {
			return nil, err
		}
		assert(arc.Label < targetLabel)
		assert(arc.IsLast())
		return nil, e.pushLast()
	}
	// Within label range.
	if _, err := e.fst.ReadArcByContinuous(arc, in, targetIndex); err != nil {
		return nil, err
	}
	assert(arc.Label == targetLabel)
	return e.descend(arc, targetLabel)
}

func (e *fstEnum[T]) doSeekFloorArrayDirectAddressing(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	// The array is addressed directly by label, with presence bits to
	// compute the actual arc offset.
	targetIndex := targetLabel - arc.firstLabel
	switch {
	case targetIndex < 0:
		// Before first arc.
		return e.backtrackToFloorArc(arc, targetLabel, in)
	case targetIndex >= arc.numArcs:
		// After last arc.
		if _, err := e.fst.ReadLastArcByDirectAddressing(arc, in); err != nil {
			return nil, err
		}
		assert(arc.Label < targetLabel)
		assert(arc.IsLast())
		return nil, e.pushLast()
	}
	// Within label range.
	present, err := isArcBitSet(targetIndex, arc, in)
	if err != nil {
		return nil, err
	}
	if present {
		if _, err = e.fst.ReadArcByDirectAddressing(arc, in, targetIndex); err != nil {
			return nil, err
		}
		assert(arc.Label == targetLabel)
		return e.descend(arc, targetLabel)
	}
	// Scan backwards to find a floor arc.
	floorIndex, err := previousArcBitSet(targetIndex, arc, in)
	if err != nil {
		return nil, err
	}
	assert(floorIndex != -1)
	if _, err = e.fst.ReadArcByDirectAddressing(arc, in, floorIndex); err != nil {
		return nil, err
	}
	assert(arc.Label < targetLabel)
	return nil, e.pushLast()
}

/*
Backtracks until it finds a node which first arc is before our target
label. Then on the node, finds the arc just before the targetLabel.
Returns nil to stop the seek floor loop.
*/
func (e *fstEnum[T]) backtrackToFloorArc(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	for {
		// First, walk backwards until we find a node which first arc is
		// before our target label.
		if _, err := e.fst.ReadFirstTargetArc(e.getArc(e.upto-1), arc, e.fstReader); err != nil {
			return nil, err
		}
		if arc.Label < targetLabel {
			// Then on this node, find the arc just before the targetLabel.
			if !arc.IsLast() {
				if err := e.findNextFloorArc(arc, targetLabel, in); err != nil {
					return nil, err
				}
			}
			assert(arc.Label < targetLabel)
			return nil, e.pushLast()
		}
		e.upto--
		if e.upto == 0 {
			return nil, nil
		}
		targetLabel = e.labels.targetLabel()
		arc = e.getArc(e.upto)
	}
}

func (e *fstEnum[T]) findNextFloorArc(arc *Arc[T], targetLabel int, in BytesReader) error {
	if arc.bytesPerArc != 0 && arc.Label != END_LABEL {
		switch arc.nodeFlags {
		case ARCS_FOR_BINARY_SEARCH:
			return e.findNextFloorArcBinarySearch(arc, targetLabel, in)
		case ARCS_FOR_DIRECT_ADDRESSING:
			return e.findNextFloorArcDirectAddressing(arc, targetLabel, in)
		default:
			return e.findNextFloorArcContinuous(arc, targetLabel, in)
		}
	}
	for !arc.IsLast() {
		label, err := e.fst.readNextArcLabel(arc, in)
		if err != nil {
			return err
		}
		if label >= targetLabel {
			break
		}
		if _, err = e.fst.ReadNextArc(arc, e.fstReader); err != nil {
			return err
		}
	}
	return nil
}

/*
Finds and reads an arc on the current node which label is strictly
less than the given label. Skips the first arc, finds next floor arc;
or none if the floor arc is the first arc itself (in this case it has
already been read).

Precondition: the given arc is the first arc of the node.
*/
func (e *fstEnum[T]) findNextFloorArcDirectAddressing(arc *Arc[T], targetLabel int, in BytesReader) error {
	assert(arc.nodeFlags == ARCS_FOR_DIRECT_ADDRESSING)
	assert(arc.Label != END_LABEL)
	assert(arc.Label == arc.firstLabel)
	if arc.numArcs > 1 {
		targetIndex := targetLabel - arc.firstLabel
		assert(targetIndex >= 0)
		if targetIndex >= arc.numArcs {
			// Beyond last arc. Take last arc.
			_, err := e.fst.ReadLastArcByDirectAddressing(arc, in)
			return err
		}
		// Take the preceding arc, even if the target is present.
		floorIndex, err := previousArcBitSet(targetIndex, arc, in)
		if err != nil {
			return err
		}
		if floorIndex > 0 {
			_, err = e.fst.ReadArcByDirectAddressing(arc, in, floorIndex)
			return err
		}
	}
	return nil
}

func (e *fstEnum[T]) findNextFloorArcContinuous(arc *Arc[T], targetLabel int, in BytesReader) error {
	assert(arc.nodeFlags == ARCS_FOR_CONTINUOUS)
	assert(arc.Label != END_LABEL)
	assert(arc.Label == arc.firstLabel)
	if arc.numArcs > 1 {
		targetIndex := targetLabel - arc.firstLabel
		assert(targetIndex >= 0)
		var err error
		if targetIndex >= arc.numArcs {
			// Beyond last arc. Take last arc.
			_, err = e.fst.ReadLastArcByContinuous(arc, in)
		} else {
			_, err = e.fst.ReadArcByContinuous(arc, in, targetIndex-1)
		}
		return err
	}
	return nil
}

/* Same as findNextFloorArcDirectAddressing for binary search node. */
func (e *fstEnum[T]) findNextFloorArcBinarySearch(arc *Arc[T], targetLabel int, in BytesReader) error {
	assert(arc.nodeFlags == ARCS_FOR_BINARY_SEARCH)
	assert(arc.Label != END_LABEL)
	assert(arc.arcIdx == 0)
	if arc.numArcs > 1 {
		idx, err := binarySearch(e.fst, arc, targetLabel)
		if err != nil {
			return err
		}
		assert(idx != -1)
		if idx > 1 {
			_, err = e.fst.ReadArcByIndex(arc, in, idx-1)
		} else if idx < -2 {
			_, err = e.fst.ReadArcByIndex(arc, in, -2-idx)
		}
		return err
	}
	return nil
}

func (e *fstEnum[T]) doSeekFloorArrayPacked(arc *Arc[T], targetLabel int, in BytesReader) (*Arc[T], error) {
	// Arcs are fixed array -- use binary search to find the target.
	idx, err := binarySearch(e.fst, arc, targetLabel)
	if err != nil {
		return nil, err
	}
	switch {
	case idx >= 0:
		// Match -- recurse
		if _, err = e.fst.ReadArcByIndex(arc, in, idx); err != nil {
			return nil, err
		}
		assert(arc.arcIdx == idx)
		assert(arc.Label == targetLabel)
		return e.descend(arc, targetLabel)
	case idx == -1:
		// Before first arc.
		return e.backtrackToFloorArc(arc, targetLabel, in)
	}
	// There is a floor arc; idx will be (-1 - (floor + 1)).
	if _, err = e.fst.ReadArcByIndex(arc, in, -2-idx); err != nil {
		return nil, err
	}
	assert2(arc.Label < targetLabel, "arc.label=%v vs targetLabel=%v", arc.Label, targetLabel)
	return nil, e.pushLast()
}

func (e *fstEnum[T]) doSeekFloorList(arc *Arc[T], targetLabel int) (*Arc[T], error) {
	switch {
	case arc.Label == targetLabel:
		// Match -- recurse
		return e.descend(arc, targetLabel)
	case arc.Label > targetLabel:
		// TODO: if each arc could somehow read the arc just before, we
		// can save this re-scan. The ceil case doesn't need this because
		// it reads the next arc instead:
		for {
			// First, walk backwards until we find a first arc that's
			// before our target label:
			if _, err := e.fst.ReadFirstTargetArc(e.getArc(e.upto-1), arc, e.fstReader); err != nil {
				return nil, err
			}
			if arc.Label < targetLabel {
				// Then, scan forwards to the arc just before the
				// targetLabel:
				for !arc.IsLast() {
					label, err := e.fst.readNextArcLabel(arc, e.fstReader)
					if err != nil {
						return nil, err
					}
					if label >= targetLabel {
						break
					}
					if _, err = e.fst.ReadNextArc(arc, e.fstReader); err != nil {
						return nil, err
					}
				}
				return nil, e.pushLast()
			}
			e.upto--
			if e.upto == 0 {
				return nil, nil
			}
			targetLabel = e.labels.targetLabel()
			arc = e.getArc(e.upto)
		}
	case !arc.IsLast():
		label, err := e.fst.readNextArcLabel(arc, e.fstReader)
		if err != nil {
			return nil, err
		}
		if label > targetLabel {
			return nil, e.pushLast()
		}
		// keep scanning
		return e.fst.ReadNextArc(arc, e.fstReader)
	}
	return nil, e.pushLast()
}

/* Seeks to exactly target term. */
func (e *fstEnum[T]) doSeekExact() (bool, error) {
	// Save time by starting at the end of the shared prefix b/w our
	// current term & the target:
	if err := e.rewindPrefix(); err != nil {
		return false, err
	}
	arc := e.getArc(e.upto - 1)
	targetLabel := e.labels.targetLabel()
	fstReader := e.fst.BytesReader()
	for {
		nextArc, err := e.fst.FindTargetArc(targetLabel, arc, e.getArc(e.upto), fstReader)
		if err != nil {
			return false, err
		}
		if nextArc == nil {
			// short circuit
			_, err = e.fst.ReadFirstTargetArc(arc, e.getArc(e.upto), fstReader)
			return false, err
		}
		// Match -- recurse:
		e.output[e.upto] = e.fst.outputs.Add(e.output[e.upto-1], nextArc.Output)
		if targetLabel == END_LABEL {
			return true, nil
		}
		e.labels.setCurrentLabel(targetLabel)
		e.incr()
		targetLabel = e.labels.targetLabel()
		arc = nextArc
	}
}

func (e *fstEnum[T]) incr() {
	e.upto++
	e.labels.grow()
	if len(e.arcs) <= e.upto {
		newArcs := make([]*Arc[T], oversizeRefs(e.upto+1))
		copy(newArcs, e.arcs)
		e.arcs = newArcs
	}
	if len(e.output) <= e.upto {
		newOutput := make([]T, oversizeRefs(e.upto+1))
		copy(newOutput, e.output)
		e.output = newOutput
	}
}

/*
Appends current arc, and then recurses from its target, appending
first arc all the way to the final node
*/
func (e *fstEnum[T]) pushFirst() error {
	arc := e.arcs[e.upto]
	assert(arc != nil)
	for {
		e.output[e.upto] = e.fst.outputs.Add(e.output[e.upto-1], arc.Output)
		if arc.Label == END_LABEL {
			// Final node
			return nil
		}
		e.labels.setCurrentLabel(arc.Label)
		e.incr()

		nextArc := e.getArc(e.upto)
		if _, err := e.fst.ReadFirstTargetArc(arc, nextArc, e.fstReader); err != nil {
			return err
		}
		arc = nextArc
	}
}

/*
Recurses from current arc, appending last arc all the way to the
first final node
*/
func (e *fstEnum[T]) pushLast() error {
	arc := e.arcs[e.upto]
	assert(arc != nil)
	for {
		e.labels.setCurrentLabel(arc.Label)
		e.output[e.upto] = e.fst.outputs.Add(e.output[e.upto-1], arc.Output)
		if arc.Label == END_LABEL {
			// Final node
			return nil
		}
		e.incr()

		var err error
		if arc, err = e.fst.ReadLastTargetArc(arc, e.getArc(e.upto), e.fstReader); err != nil {
			return err
		}
	}
}

func (e *fstEnum[T]) getArc(idx int) *Arc[T] {
	if e.arcs[idx] == nil {
		e.arcs[idx] = new(Arc[T])
	}
	return e.arcs[idx]
}
