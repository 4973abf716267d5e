package program

// computeGraphOrder performs the step-4 DFS: for each carrier in the
// voice, walk its modulator lists in the fixed order
// {FM, rate-FM, PM, freq-PM, AM, ring-AM}, recording a GraphEntry per
// operator visited and tracking the deepest nesting reached.
func (b *builder) computeGraphOrder(v *VoiceAllocation) {
	var order []GraphEntry
	maxDepth := 0
	visiting := make(map[int]bool)

	var visit func(opID int, depth int, use UseType, isRoot bool)
	visit = func(opID int, depth int, use UseType, isRoot bool) {
		if visiting[opID] {
			return // cycle guard; the graph is contracted to be a DAG
		}
		visiting[opID] = true
		defer delete(visiting, opID)

		order = append(order, GraphEntry{OpID: opID, Depth: depth, UseType: use, IsRoot: isRoot})
		if depth > maxDepth {
			maxDepth = depth
		}
		node := b.ops[opID]
		walk := func(list *OpList, ut UseType) {
			if list == nil {
				return
			}
			for _, id := range list.IDs {
				visit(id, depth+1, ut, false)
			}
		}
		walk(node.FMList, UseFM)
		walk(node.RateFMList, UseRateFM)
		walk(node.PMList, UsePM)
		walk(node.FreqPMList, UseFreqPM)
		walk(node.AMList, UseAM)
		walk(node.RingAMList, UseRingAM)
	}

	for _, cid := range v.CarrierIDs {
		visit(cid, 0, UseFM, true)
	}
	v.GraphOrder = order
	v.MaxDepth = maxDepth
	if maxDepth > b.maxDepthSeen {
		b.maxDepthSeen = maxDepth
	}
}
