package packetutils

/*-------------------------------------------------------------
 *
 * Purpose:	Erasure group buffer on the receive side.
 *
 * Description:	A group is up to group_size data slots plus one XOR
 *		parity slot.  Any one missing data slot can be rebuilt
 *		from the parity and the others.
 *
 *		Slots live in one fixed array indexed by slot id, parity
 *		last, with a presence bitmap beside it.  Nothing is
 *		allocated per frame.
 *
 *		The parity frame's slot id tells how many data slots it
 *		covers.  That is group_size except for the last group of
 *		a stream, which may be short.
 *
 *--------------------------------------------------------------*/

type erasure_group struct {
	group_size  int
	payload_len int

	store   []byte    // (group_size + 1) * payload_len
	present [4]uint64 // One bit per slot, parity at index group_size.

	parity_count int // Data slots covered by the parity, when present.
}

type flush_result struct {
	out       []byte
	recovered int
	lost      int

	bad_parity bool // Parity present but its slot count did not fit.
}

func new_erasure_group(group_size int, payload_len int) *erasure_group {
	return &erasure_group{
		group_size:   group_size,
		payload_len:  payload_len,
		store:        make([]byte, (group_size+1)*payload_len),
		present:      [4]uint64{},
		parity_count: 0,
	}
}

func (g *erasure_group) slot(i int) []byte {
	return g.store[i*g.payload_len : (i+1)*g.payload_len]
}

func (g *erasure_group) has(i int) bool {
	return g.present[i/64]&(1<<(i%64)) != 0
}

func (g *erasure_group) mark(i int) {
	g.present[i/64] |= 1 << (i % 64)
}

func (g *erasure_group) empty() bool {
	return g.present == [4]uint64{}
}

func (g *erasure_group) clear() {
	g.present = [4]uint64{}
	g.parity_count = 0
}

// store_data keeps a data payload.  False if the slot id is out of range.
func (g *erasure_group) store_data(slot int, payload []byte) bool {
	if slot < 0 || slot >= g.group_size || len(payload) != g.payload_len {
		return false
	}
	copy(g.slot(slot), payload)
	g.mark(slot)
	return true
}

// store_parity keeps the parity payload.  count is the parity frame's slot id.
func (g *erasure_group) store_parity(count int, payload []byte) bool {
	if count < 1 || count > g.group_size || len(payload) != g.payload_len {
		return false
	}
	copy(g.slot(g.group_size), payload)
	g.mark(g.group_size)
	g.parity_count = count
	return true
}

/*-------------------------------------------------------------
 *
 * Name:	flush
 *
 * Purpose:	Emit the group in slot order, rebuilding one missing
 *		data slot if possible, then clear it.
 *
 * Inputs:	full		- The group was closed by a later group so it
 *				  must have had group_size data slots.
 *
 *		fill_gaps	- Emit zeros for slots that can't be rebuilt,
 *				  keeping the stream aligned.  Otherwise they
 *				  are just skipped.
 *
 * Description:	The parity frame's slot id is outside the CRC.  It is
 *		only believed for the last group of a stream, and only
 *		if it covers every data slot that arrived.  Parity whose
 *		count disagrees is not used for rebuilding.
 *
 *--------------------------------------------------------------*/

func (g *erasure_group) flush(full bool, fill_gaps bool) flush_result {
	defer g.clear()

	var result flush_result
	if g.empty() {
		return result
	}

	var have_parity = g.has(g.group_size)

	var highest = 0
	for i := range g.group_size {
		if g.has(i) {
			highest = i + 1
		}
	}

	// How many data slots did the sender put in this group?
	var expected = highest
	switch {
	case full:
		expected = g.group_size
	case have_parity && g.parity_count >= highest:
		expected = g.parity_count
	}

	if have_parity && g.parity_count != expected {
		have_parity = false
		result.bad_parity = true
	}

	var missing = -1
	var missing_count = 0
	for i := range expected {
		if !g.has(i) {
			missing = i
			missing_count++
		}
	}

	if missing_count == 1 && have_parity {
		var rebuilt = g.slot(missing)
		copy(rebuilt, g.slot(g.group_size))
		for i := range expected {
			if i == missing {
				continue
			}
			var data = g.slot(i)
			for b := range rebuilt {
				rebuilt[b] ^= data[b]
			}
		}
		g.mark(missing)
		result.recovered = 1
		missing_count = 0
	}

	result.out = make([]byte, 0, expected*g.payload_len)
	for i := range expected {
		if g.has(i) {
			result.out = append(result.out, g.slot(i)...)
		} else if fill_gaps {
			result.out = append(result.out, make([]byte, g.payload_len)...)
		}
	}
	result.lost = missing_count

	return result
}
