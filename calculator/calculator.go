// Arithmetic of aperture macro parameters.
// Expressions use + - x / and parentheses, $n names refer to the flash
// parameters, x or X (and *) multiply.
package calculator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSyntax          = errors.New("bad expression")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrDivisionByZero  = errors.New("division by zero")
)

// OpCode joins a token to the next one
type OpCode int

const (
	Nop OpCode = iota
	Add
	Mul
)

func (oc OpCode) String() string {
	switch oc {
	case Add:
		return "+"
	case Mul:
		return "x"
	case Nop:
		return "<nop>"
	default:
	}
	return "bad OpCode"
}

// subtraction and division are folded into the operand
type token struct {
	value     float64
	operation OpCode
}

func (t token) String() string {
	return strconv.FormatFloat(t.value, 'f', 10, 64) + " " + t.operation.String()
}

// Params names the values $1, $2 ... in order
func Params(values ...float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for i, v := range values {
		out["$"+strconv.Itoa(i+1)] = v
	}
	return out
}

/*
Eval computes the expression.
The innermost parenthesised part is reduced to a temporary $$n variable
until the whole expression is one variable.
*/
func Eval(str string, vars map[string]float64) (float64, error) {
	storage := make(map[string]float64, len(vars)+4)
	for k, v := range vars {
		storage[k] = v
	}
	src := str
	str = "(" + strings.Join(strings.Fields(str), "") + ")"
	if strings.Count(str, "(") != strings.Count(str, ")") {
		return 0, syntax(src)
	}
	tempVarID := 0
	valName := ""
	for str != valName {
		reduced := false
		stack := make([]int, 0, 4)
		for i, r := range str {
			if r == '(' {
				stack = append(stack, i)
				continue
			}
			if r != ')' {
				continue
			}
			if len(stack) == 0 {
				return 0, syntax(src)
			}
			lPar := stack[len(stack)-1]
			tf, err := tokenize(str[lPar+1:i], storage)
			if err != nil {
				return 0, fmt.Errorf("%w in %q", err, src)
			}
			valName = "$$" + strconv.Itoa(tempVarID)
			tempVarID++
			storage[valName] = calc(tf)
			str = str[:lPar] + valName + str[i+1:]
			reduced = true
			break
		}
		if !reduced {
			return 0, syntax(src)
		}
	}
	return storage[valName], nil
}

func syntax(s string) error {
	return fmt.Errorf("%w: %q", ErrSyntax, s)
}

// tokenize splits a parenthesis-free formula
func tokenize(str string, storage map[string]float64) ([]token, error) {
	out := make([]token, 0, 4)
	tokenStart := true
	needNeg, needInv := false, false
	operand := ""
	for _, r := range str {
		if tokenStart && (r == '+' || r == '-') {
			tokenStart = false
			operand += string(r)
			continue
		}
		var op OpCode
		var nextNeg, nextInv bool
		switch r {
		case '+':
			op = Add
		case '-':
			op = Add
			nextNeg = true
		case '/':
			op = Mul
			nextInv = true
		case 'x', 'X', '*':
			op = Mul
		default:
			operand += string(r)
			tokenStart = false
			continue
		}
		v, err := value(operand, storage, needNeg, needInv)
		if err != nil {
			return nil, err
		}
		out = append(out, token{v, op})
		tokenStart = true
		operand = ""
		needNeg, needInv = nextNeg, nextInv
	}
	// last token
	v, err := value(operand, storage, needNeg, needInv)
	if err != nil {
		return nil, err
	}
	return append(out, token{v, Nop}), nil
}

func value(operand string, storage map[string]float64, neg, inv bool) (float64, error) {
	sign := 1.0
	switch {
	case strings.HasPrefix(operand, "-"):
		sign = -1
		operand = operand[1:]
	case strings.HasPrefix(operand, "+"):
		operand = operand[1:]
	}
	var v float64
	if strings.HasPrefix(operand, "$") {
		var ok bool
		if v, ok = storage[operand]; !ok {
			return 0, fmt.Errorf("%w %s", ErrUnknownVariable, operand)
		}
	} else {
		var err error
		if v, err = strconv.ParseFloat(operand, 64); err != nil {
			return 0, fmt.Errorf("%w: operand %q", ErrSyntax, operand)
		}
	}
	v *= sign
	if inv {
		if v == 0 {
			return 0, ErrDivisionByZero
		}
		v = 1 / v
	}
	if neg {
		v = -v
	}
	return v, nil
}

// calc sums the products
func calc(tf []token) float64 {
	sum, mul := 0.0, 1.0
	for _, t := range tf {
		mul *= t.value
		if t.operation != Mul {
			sum += mul
			mul = 1
		}
	}
	return sum
}
