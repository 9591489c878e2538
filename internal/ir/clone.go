package ir

// Clone produces independent copies of IR subtrees with fresh Value
// identities, used by the force-inline engine (spec.md §4.4 step 2,
// "clone the callee body into that region") and by the conversion
// framework's full-mode rollback (spec.md §4.3 "the IR is rolled back
// to its pre-pass state").

// CloneRegionInto deep-clones every block of src into dest (which must
// be empty), remapping operands through vmap as it goes and recording
// every newly introduced value (block arguments and op results) into
// vmap so callers — or nested clones — can resolve cross-references.
// Values referenced by src's ops that are not themselves being cloned
// (captured from outside src, which is only legal when src's owner is
// not isolated-from-above) pass through unchanged.
//
// A caller may pre-populate vmap with entries for some of src's block
// arguments before calling (the force-inline engine does this to
// substitute a callee's formal parameters with the call's actual
// operands); such arguments are elided from the cloned block entirely
// rather than given a fresh, unreachable slot.
func CloneRegionInto(ctx *Context, dest, src *Region, vmap map[*Value]*Value) {
	blockMap := make(map[*Block]*Block, len(src.blocks))
	for _, b := range src.blocks {
		var argTypes []Type
		var freshArgs []*Value
		for _, a := range b.args {
			if _, preset := vmap[a]; preset {
				continue
			}
			argTypes = append(argTypes, a.typ)
			freshArgs = append(freshArgs, a)
		}
		nb := NewBlock(argTypes...)
		for i, a := range freshArgs {
			vmap[a] = nb.args[i]
		}
		dest.AppendBlock(nb)
		blockMap[b] = nb
	}
	for _, b := range src.blocks {
		nb := blockMap[b]
		for _, op := range b.ops {
			nop := cloneOperation(ctx, op, vmap)
			InsertAtEnd(nb, nop)
			if nop.IsTerminator() {
				for i, succ := range op.successors {
					if succ == nil {
						continue
					}
					args := make([]*Value, len(op.successorArgs[i]))
					for j, a := range op.successorArgs[i] {
						args[j] = resolve(vmap, a)
					}
					nop.SetSuccessor(i, blockMap[succ], args)
				}
			}
		}
	}
}

func resolve(vmap map[*Value]*Value, v *Value) *Value {
	if mapped, ok := vmap[v]; ok {
		return mapped
	}
	return v
}

func cloneOperation(ctx *Context, op *Operation, vmap map[*Value]*Value) *Operation {
	nop := &Operation{Name: op.Name, Loc: op.Loc, trait: op.trait}
	nop.operands = make([]*Value, len(op.operands))
	for i, o := range op.operands {
		nop.operands[i] = resolve(vmap, o)
	}
	for i, r := range op.results {
		v := &Value{id: newValueID(), typ: r.typ, defOp: nop, resIndex: i}
		nop.results = append(nop.results, v)
		vmap[r] = v
	}
	for i, operand := range nop.operands {
		operand.addUse(&Use{Value: operand, User: nop, Operand: i})
	}
	if len(op.attrNames) > 0 {
		nop.attrs = make(map[string]Attribute, len(op.attrNames))
		nop.attrNames = append([]string(nil), op.attrNames...)
		for _, n := range op.attrNames {
			nop.attrs[n] = op.attrs[n]
		}
	}
	for _, r := range op.regions {
		nr := nop.AddRegion()
		if r.symbols != nil {
			nr.EnableSymbolTable()
		}
		CloneRegionInto(ctx, nr, r, vmap)
	}
	return nop
}

// Snapshot returns a standalone deep clone of region, suitable as a
// rollback point; it shares nothing mutable with region.
func Snapshot(ctx *Context, region *Region) *Region {
	backup := NewRegion()
	CloneRegionInto(ctx, backup, region, make(map[*Value]*Value))
	return backup
}

// Restore replaces region's contents with a previously taken Snapshot,
// reparenting the snapshot's blocks and, if region carries a symbol
// table, rebuilding its index from the restored ops' sym_name
// attributes.
func Restore(region *Region, snapshot *Region) {
	region.blocks = snapshot.blocks
	for _, b := range region.blocks {
		b.region = region
	}
	if region.symbols != nil {
		region.symbols = nil
		region.EnableSymbolTable()
		for _, b := range region.blocks {
			for _, op := range b.ops {
				registerSymbol(region, op)
			}
		}
	}
	region.RefreshCFG()
}
