// Package kdag provides the logical plan of a streaming dataflow: a directed
// graph of operators joined by named streams, its builder API, and the
// validator that certifies a plan before it is handed to a scheduler.
//
// # Overview
//
// A plan is built in one pass by a single owner and then validated:
//
//  1. **Build**: register operators, create streams, bind output ports as
//     stream sources and input ports as stream sinks, set attributes
//  2. **Validate**: check each operator's constraints and required ports, then
//     search the whole graph for cycles
//
// # Architecture
//
//   - **DAG**: owns operators, streams, the root operator list and DAG-scope
//     attributes
//   - **OperatorMeta**: wraps one operator instance, its lazily discovered
//     ports and its connected streams
//   - **InputPortMeta / OutputPortMeta**: one named port of one operator
//   - **StreamMeta**: one named edge with a single source and any number of
//     sinks, a co-location hint and a codec class
//
// Ports are discovered through a koperator.Describer the first time they are
// needed and cached per operator. An operator whose ports cannot be described
// does not block the others; Validate reports it. The default describer reads
// typed port fields from the operator struct.
//
// # Basic Usage
//
//	type Reader struct {
//	    Out koperator.OutputPort[string]
//	}
//
//	type Writer struct {
//	    In koperator.InputPort[string]
//	}
//
//	d := kdag.New()
//	reader := kdag.MustAdd(d, "reader", &Reader{})
//	writer := kdag.MustAdd(d, "writer", &Writer{})
//	kdag.MustConnect(d, "lines", &reader.Out, &writer.In)
//
//	if err := d.Validate(); err != nil {
//	    // report and abort
//	}
//
// Ports are tagged to rename them or mark them optional:
//
//	type Filter struct {
//	    In       koperator.InputPort[Event]   `port:"in"`
//	    Out      koperator.OutputPort[Event]  `port:"out"`
//	    Rejected koperator.OutputPort[Event]  `port:"rejected,optional"`
//	}
//
// # Attributes
//
// Attributes are typed kattr keys stored at DAG, operator or port scope.
// There is no inheritance between scopes; use kattr.Resolve to consult the
// most specific scope first.
//
//	kattr.Set(d.Attributes(), kdag.MaxContainers, 8)
//	kdag.SetOperatorAttribute(d, reader, kdag.InitialPartitionCount, 4)
//	kdag.SetInputPortAttribute(d, &writer.In, kdag.QueueCapacity, 4096)
//
// NewFromConfig loads DAG-scope attributes from string settings, e.g. the
// environment through kattr.EnvSource.
//
// # Validation
//
// Validate checks operators in registration order and stops at the first
// failing one:
//
//   - **Constraints**: struct tags and Validate methods of the operator
//   - **Inputs**: every required input port is connected
//   - **Outputs**: an operator with a required output has a connected output,
//     and every required output port is connected
//
// It then searches the graph for cycles with Tarjan's algorithm and reports
// all of them at once in a *CycleError. Self-loops count as cycles. Streams
// without source and sinks fail with ErrDanglingStream.
//
// # Error Handling
//
// All errors wrap sentinel errors that can be checked with errors.Is:
//
//	_, err := d.AddStreamWithPorts("s", &a.Out, &b.In)
//	if errors.Is(err, kdag.ErrPortAlreadyConnected) {
//	    // a.Out already sources another stream
//	}
//
// Builder calls fail fast: a failing call changes nothing, but earlier
// successful calls are kept. Use Must* variants to panic on error.
//
// # Serialization
//
// Write and Read persist a whole DAG. Operator instances are encoded by an
// injected kserde.OperatorCodec and stored as opaque blocks, so the container
// format does not depend on how operators are serialized.
//
// # Thread Safety
//
// IMPORTANT: DAG is NOT safe for concurrent mutation. The first Validate call
// discovers all ports and must be made by the owner; after that, Validate
// keeps its state local to the call and may run from several goroutines.
package kdag
