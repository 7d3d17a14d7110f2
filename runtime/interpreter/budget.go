package interpreter

import (
	"context"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/runtime/diagnostic"
)

// cancelCheckInterval is how many steps run between context checks.
const cancelCheckInterval = 256

// budget counts evaluated nodes and watches for cancellation. A zero max
// means unlimited.
type budget struct {
	ctx  context.Context
	max  int64
	used int64
}

func newBudget(ctx context.Context, max int64) *budget {
	if ctx == nil {
		ctx = context.Background()
	}
	return &budget{ctx: ctx, max: max}
}

// step charges one node. The returned error is fatal for the run.
func (in *Interpreter) step(node ast.Node) error {
	b := in.budget
	b.used++
	if b.max > 0 && b.used > b.max {
		return in.fatalAtNode(node, "execution budget of %d steps exceeded", b.max)
	}
	if b.used == 1 || b.used%cancelCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			return in.fatalAtNode(node, "execution cancelled").CausedBy(err)
		}
	}
	return nil
}

func (in *Interpreter) fatalAtNode(node ast.Node, format string, args ...interface{}) *diagnostic.RuntimeError {
	err := diagnostic.NewRuntimeError("", node.Position(), format, args...).WithSource(in.source)
	err.Fatal = true
	return err
}
