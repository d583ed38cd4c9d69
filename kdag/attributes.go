package kdag

import "github.com/birdayz/kplan/kattr"

// DAG scope.
var (
	MaxContainers     = kattr.NewKey(kattr.ScopeDAG, "kplan.maxContainers", 3)
	Debug             = kattr.NewKey(kattr.ScopeDAG, "kplan.debug", false)
	ContainerMemoryMB = kattr.NewKey(kattr.ScopeDAG, "kplan.containerMemoryMB", 1024)
	MasterMemoryMB    = kattr.NewKey(kattr.ScopeDAG, "kplan.masterMemoryMB", 1024)
	AppName           = kattr.NewKey(kattr.ScopeDAG, "kplan.appName", "")
	WindowSizeMillis  = kattr.NewKey(kattr.ScopeDAG, "kplan.windowSizeMillis", int64(500))
)

// Operator scope.
var (
	InitialPartitionCount = kattr.NewKey(kattr.ScopeOperator, "kplan.operator.initialPartitionCount", 1)
	SpinMillis            = kattr.NewKey(kattr.ScopeOperator, "kplan.operator.spinMillis", 10)
)

// Port scope.
var (
	QueueCapacity     = kattr.NewKey(kattr.ScopePort, "kplan.port.queueCapacity", 1024)
	PartitionParallel = kattr.NewKey(kattr.ScopePort, "kplan.port.partitionParallel", false)
)

// SetOperatorAttribute sets an operator-scope attribute on a registered
// operator instance.
func SetOperatorAttribute[T any](d *DAG, op any, k *kattr.Key[T], v T) error {
	meta, ok := d.OperatorFor(op)
	if !ok {
		return ErrOperatorNotFound
	}
	kattr.Set(meta.attrs, k, v)
	return nil
}

// SetInputPortAttribute sets a port-scope attribute on an input port of a
// registered operator.
func SetInputPortAttribute[T any](d *DAG, port InputPort, k *kattr.Key[T], v T) error {
	pm, err := d.resolveInput(port)
	if err != nil {
		return err
	}
	kattr.Set(pm.attrs, k, v)
	return nil
}

// SetOutputPortAttribute sets a port-scope attribute on an output port of a
// registered operator.
func SetOutputPortAttribute[T any](d *DAG, port OutputPort, k *kattr.Key[T], v T) error {
	pm, err := d.resolveOutput(port)
	if err != nil {
		return err
	}
	kattr.Set(pm.attrs, k, v)
	return nil
}
