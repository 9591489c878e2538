// Package gpulower implements the GPU lowering component of spec.md
// §4.6: buffer flow analysis and allocation insertion (§4.6.1-2),
// parallel-loop tiling (§4.6.3), memref flattening (§4.6.4), SPIR-V
// conversion (§4.6.5), f64 degrade (§4.6.6), kernel outlining and
// dispatch (§4.6.7), and ABI/capability attachment (§4.6.8). Grounded
// throughout on GpuToGpuRuntime.cpp's InsertGPUAllocs,
// ParallelLoopGPUMappingPass, and SPIR-V conversion pass population.
package gpulower

import (
	"fmt"

	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/ir"
)

// Access records whether a buffer value is read/written from the host
// side, the device side, or both (spec.md §4.6.1).
type Access struct {
	HostRead    bool
	HostWrite   bool
	DeviceRead  bool
	DeviceWrite bool
	Env         ir.Attribute
}

// HostShared reports spec.md §4.6.2's hostShared predicate.
func (a *Access) HostShared() bool { return a.HostRead || a.HostWrite }

// ClassifyBuffers walks fn's body and classifies every buffer value
// reachable from an explicit memref.alloc, a memref.get_global, or a
// function parameter (spec.md §4.6.1). It returns an error if the same
// buffer is used on-device under two different environments.
func ClassifyBuffers(ctx *ir.Context, f *ir.Operation) (map[*ir.Value]*Access, error) {
	body := f.Regions()[0]
	entry := body.Entry()

	buffers := make(map[*ir.Value]*Access)
	var order []*ir.Value

	track := func(v *ir.Value) {
		if _, ok := buffers[v]; !ok {
			buffers[v] = &Access{}
			order = append(order, v)
		}
	}

	for _, arg := range entry.Args() {
		if _, ok := arg.Type().(*ir.MemRefType); ok {
			track(arg)
			buffers[arg].HostRead = true
			buffers[arg].HostWrite = true
		}
	}

	ir.WalkRegion(body, ir.PreOrder, func(op *ir.Operation) {
		if op.Name == memref.Alloc || op.Name == memref.GetGlobal {
			if op.NumResults() == 1 {
				track(op.Result(0))
				if op.Name == memref.GetGlobal {
					buffers[op.Result(0)].HostWrite = true
				}
			}
		}
	})

	for _, v := range order {
		access := buffers[v]
		for _, use := range v.Uses() {
			if err := classifyUse(use, access); err != nil {
				return nil, err
			}
		}
	}
	return buffers, nil
}

func classifyUse(use *ir.Use, access *Access) error {
	user := use.User
	onDevice := insideEnvRegion(user)

	switch {
	case user.Name == fn.Return:
		access.HostRead = true
		access.HostWrite = true
	case user.Name == memref.Copy:
		if use.Operand == 0 {
			access.HostRead = true
		} else {
			access.HostWrite = true
		}
	case user.Name == memref.Load:
		markRead(access, onDevice)
	case user.Name == memref.Store:
		if use.Operand == 1 {
			markWrite(access, onDevice)
		}
	case user.Name == fn.Call:
		markRead(access, onDevice)
		markWrite(access, onDevice)
	default:
		return nil
	}

	if onDevice {
		env := enclosingEnv(user)
		if env != nil {
			if access.Env == nil {
				access.Env = env
			} else if access.Env != env {
				return fmt.Errorf("gpulower: buffer used under conflicting devices %s and %s", access.Env, env)
			}
		}
	}
	return nil
}

func markRead(a *Access, onDevice bool) {
	if onDevice {
		a.DeviceRead = true
	} else {
		a.HostRead = true
	}
}

func markWrite(a *Access, onDevice bool) {
	if onDevice {
		a.DeviceWrite = true
	} else {
		a.HostWrite = true
	}
}

// insideEnvRegion reports whether op is nested inside a gpu.env_region.
func insideEnvRegion(op *ir.Operation) bool {
	return enclosingEnvOp(op) != nil
}

func enclosingEnvOp(op *ir.Operation) *ir.Operation {
	for cur := op.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Name == gpu.EnvRegion {
			return cur
		}
	}
	return nil
}

func enclosingEnv(op *ir.Operation) ir.Attribute {
	envOp := enclosingEnvOp(op)
	if envOp == nil {
		return nil
	}
	a, _ := envOp.Attr(gpu.EnvironmentAttr)
	return a
}
