package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mediabridge/sdiip/internal/media"
)

// Node is one Stage wired into a Graph, holding the bounded queue that
// feeds it and a Priority value. Graph does not consult Priority: every
// node drains its queue on its own goroutine.
type Node struct {
	Name     string
	Stage    Stage
	Queue    *Queue
	Priority int // recorded only; Graph does not read it
}

// Graph wires a fixed set of Nodes, built once as a DAG at construction
// time, and drains each one's queue on its own goroutine, supervised by
// an errgroup.WithContext the same way cmd/sdiipd supervises its
// top-level metrics/pipeline/tick goroutines: any node's fatal error
// cancels the whole graph.
type Graph struct {
	log   *slog.Logger
	clock *media.Clock
	nodes []*Node
}

// NewGraph creates an empty Graph driven by the given clock.
func NewGraph(log *slog.Logger, clock *media.Clock) *Graph {
	if log == nil {
		log = slog.Default()
	}
	return &Graph{log: log, clock: clock}
}

// AddNode registers a Stage under name with the given queue bound and
// overflow policy, returning the Queue to use as that stage's Sink when
// wiring its upstream producer.
func (g *Graph) AddNode(name string, stage Stage, queueBound int, policy OverflowPolicy) *Node {
	stage.AttachClock(g.clock)
	n := &Node{
		Name:  name,
		Stage: stage,
		Queue: NewQueue(name, queueBound, policy, g.log.With("stage", name)),
	}
	g.nodes = append(g.nodes, n)
	return n
}

// Run starts every node's drain loop and blocks until the context is
// cancelled or a node returns a fatal error, in which case every other
// node is torn down too via errgroup's cancellation propagation.
func (g *Graph) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	for _, n := range g.nodes {
		n := n
		eg.Go(func() error {
			return g.drain(ctx, n)
		})
	}

	err := eg.Wait()
	for _, n := range g.nodes {
		n.Queue.Close()
	}
	return err
}

// drain is one node's event loop: pop a frame, push it into the stage,
// repeat until the context is cancelled or the queue is closed. Each node
// gets its own loop instead of sharing one cooperative thread, since the
// graph has no shared mutable state across nodes other than the clock
// and, for the redundant sender/receiver, the NIC.
func (g *Graph) drain(ctx context.Context, n *Node) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		n.Queue.Close()
	}()
	defer func() { <-done }()

	for {
		frame, ok := n.Queue.Pop()
		if !ok {
			return nil
		}
		if frame.Kind == media.KindFlowChange {
			if err := n.Stage.SetInputFormat(frame.Flow); err != nil {
				g.log.Error("pipeline: rejected flow change", "stage", n.Name, "error", err)
				continue
			}
		}
		if err := n.Stage.PushFrame(frame); err != nil {
			if se, ok := err.(*StageError); ok && se.Kind == ErrFlowMismatch {
				g.log.Error("pipeline: flow mismatch", "stage", n.Name, "error", err)
				continue
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// Connect wires from's Stage to push its output into to's Queue: the
// caller's Stage implementation must have been constructed with `to.Queue`
// (or a Sink wrapping it) as its output target. Connect exists as the
// single place that records the edge for introspection/debugging; the
// actual push still happens inside the Stage implementation, since the
// graph is wired externally at construction time.
func (g *Graph) Connect(from, to *Node) {
	g.log.Debug("pipeline: connected stages", "from", from.Name, "to", to.Name)
}
