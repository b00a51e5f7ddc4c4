package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/sarchlab/autosplit/watcher"
)

// A Formula is a boolean expression over numeric cells, for example
// "checkpoint == 0 && load == 1 || load == 3". && binds tighter than ||, so
// that example reads as "(checkpoint == 0 && load == 1) || load == 3".
type Formula struct {
	text    string
	program *vm.Program
	deps    []string
}

// ParseFormula compiles the text of a formula. The operators are == and !=
// between a cell and an unsigned integer literal, && (or "and"), || (or
// "or"), ! (or "not") over a parenthesized formula, and parentheses.
func ParseFormula(text string) (*Formula, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("formula is empty")
	}

	tree, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", text, err)
	}

	if err := checkCondition(tree.Node); err != nil {
		return nil, fmt.Errorf("formula %q: %w", text, err)
	}

	program, err := expr.Compile(text, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("formula %q: %w", text, err)
	}

	collector := &cellCollector{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, collector)

	return &Formula{text: text, program: program, deps: collector.names}, nil
}

// MustParseFormula is ParseFormula that panics on error. It is meant for
// formulas written in code.
func MustParseFormula(text string) *Formula {
	f, err := ParseFormula(text)
	if err != nil {
		panic(err)
	}

	return f
}

func (f *Formula) String() string {
	return f.text
}

// Cells returns the cells the formula reads, in order of first use.
func (f *Formula) Cells() []string {
	return append([]string(nil), f.deps...)
}

// Eval evaluates the formula on the current values of the bank. known is
// false if any cell the formula depends on has never been observed.
func (f *Formula) Eval(b *watcher.Bank) (value, known bool) {
	env := make(map[string]any, len(f.deps))

	for _, name := range f.deps {
		c := b.Uint(name)
		if c == nil {
			return false, false
		}

		p, ok := c.Pair()
		if !ok {
			return false, false
		}

		env[name] = p.Current
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, false
	}

	v, ok := out.(bool)

	return v, ok
}

// checkCondition accepts comparisons joined by logical operators.
func checkCondition(n ast.Node) error {
	switch n := n.(type) {
	case *ast.BinaryNode:
		switch n.Operator {
		case "&&", "||", "and", "or":
			if err := checkCondition(n.Left); err != nil {
				return err
			}

			return checkCondition(n.Right)
		case "==", "!=":
			return checkComparison(n)
		}

		return fmt.Errorf("operator %q is not allowed", n.Operator)
	case *ast.UnaryNode:
		if n.Operator != "!" && n.Operator != "not" {
			return fmt.Errorf("operator %q is not allowed", n.Operator)
		}

		return checkCondition(n.Node)
	}

	return fmt.Errorf("%s is not a condition", n)
}

func checkComparison(n *ast.BinaryNode) error {
	_, leftCell := n.Left.(*ast.IdentifierNode)
	_, rightCell := n.Right.(*ast.IdentifierNode)
	_, leftNum := n.Left.(*ast.IntegerNode)
	_, rightNum := n.Right.(*ast.IntegerNode)

	if (leftCell && rightNum) || (leftNum && rightCell) {
		return nil
	}

	return fmt.Errorf("%s must compare a cell with a number", n)
}

type cellCollector struct {
	seen  map[string]bool
	names []string
}

func (c *cellCollector) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok || c.seen[id.Value] {
		return
	}

	c.seen[id.Value] = true
	c.names = append(c.names, id.Value)
}
