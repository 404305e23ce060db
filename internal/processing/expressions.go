package processing

import (
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// The expression forms the runtime needs from branch rules and
// pre-conditions: constants, variable matches, and boolean composition.
// They all evaluate against the session's variable scope and yield a
// boolean, the narrow contract models.Expression fixes.

// ConstExpression always evaluates to its value.
type ConstExpression struct {
	Value bool
}

func (e ConstExpression) Evaluate(models.VariableScope) (bool, error) {
	return e.Value, nil
}

// MatchExpression is true when the addressed variable equals the given
// scalar. An unresolvable or NULL variable never matches.
type MatchExpression struct {
	Identifier string
	Value      models.Scalar
}

func (e MatchExpression) Evaluate(scope models.VariableScope) (bool, error) {
	v, ok := scope.Variable(e.Identifier)
	if !ok || v.IsNull() {
		return false, nil
	}
	return v.Equal(models.NewSingle(e.Value)), nil
}

// NotExpression negates its operand.
type NotExpression struct {
	Operand models.Expression
}

func (e NotExpression) Evaluate(scope models.VariableScope) (bool, error) {
	v, err := e.Operand.Evaluate(scope)
	if err != nil {
		return false, err
	}
	return !v, nil
}

// AndExpression is true when every operand is true.
type AndExpression struct {
	Operands []models.Expression
}

func (e AndExpression) Evaluate(scope models.VariableScope) (bool, error) {
	for _, op := range e.Operands {
		v, err := op.Evaluate(scope)
		if err != nil {
			return false, err
		}
		if !v {
			return false, nil
		}
	}
	return true, nil
}
