package lang

import "log/slog"

// condition evaluates the words of an if or elif delimiter.
//
//	cond    := and ("or" and)*
//	and     := not ("and" not)*
//	not     := "not" not | compare
//	compare := operand [op operand]
//	op      := "==" | "!=" | "<" | ">" | "<=" | ">=" | "in" | "not in"
//
// Operators and operands must be separated by whitespace. Evaluation
// short-circuits: the right operand of a decided and/or is not evaluated.
type condition struct {
	inv   *Invocation
	words []string
	i     int
}

func evalCondition(inv *Invocation, words []string) (bool, error) {
	if len(words) == 0 {
		return false, inv.Fail("missing condition")
	}

	c := &condition{inv: inv, words: words}

	ok, err := c.or(true)
	if err != nil {
		return false, err
	}

	if c.i < len(c.words) {
		return false, inv.Fail("unexpected word in condition",
			slog.String("word", c.words[c.i]))
	}

	return ok, nil
}

func (c *condition) peek() string {
	if c.i < len(c.words) {
		return c.words[c.i]
	}

	return ""
}

func (c *condition) next() string {
	w := c.peek()
	c.i++

	return w
}

// Each level takes eval; when false, words are consumed without evaluating
// operands so that a short-circuited branch has no effect.
func (c *condition) or(eval bool) (bool, error) {
	v, err := c.and(eval)
	if err != nil {
		return false, err
	}

	for c.peek() == "or" {
		c.next()

		r, err := c.and(eval && !v)
		if err != nil {
			return false, err
		}

		v = v || r
	}

	return v, nil
}

func (c *condition) and(eval bool) (bool, error) {
	v, err := c.not(eval)
	if err != nil {
		return false, err
	}

	for c.peek() == "and" {
		c.next()

		r, err := c.not(eval && v)
		if err != nil {
			return false, err
		}

		v = v && r
	}

	return v, nil
}

func (c *condition) not(eval bool) (bool, error) {
	if c.peek() == "not" {
		c.next()

		v, err := c.not(eval)

		return !v, err
	}

	return c.compare(eval)
}

func (c *condition) compare(eval bool) (bool, error) {
	lhs, err := c.operand(eval)
	if err != nil {
		return false, err
	}

	op := c.peek()

	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "in":
		c.next()

	case "not":
		if c.i+1 < len(c.words) && c.words[c.i+1] == "in" {
			c.i += 2
			op = "not in"

			break
		}

		fallthrough

	default:
		return lhs.Truthy(), nil
	}

	rhs, err := c.operand(eval)
	if err != nil || !eval {
		return false, err
	}

	switch op {
	case "==":
		return lhs.Equal(rhs), nil

	case "!=":
		return !lhs.Equal(rhs), nil

	case "in":
		return rhs.Contains(lhs), nil

	case "not in":
		return !rhs.Contains(lhs), nil
	}

	cmp, ok := lhs.Compare(rhs)
	if !ok {
		return false, nil
	}

	switch op {
	case "<":
		return cmp < 0, nil

	case ">":
		return cmp > 0, nil

	case "<=":
		return cmp <= 0, nil

	default:
		return cmp >= 0, nil
	}
}

func (c *condition) operand(eval bool) (Value, error) {
	w := c.next()

	switch w {
	case "", "and", "or", "==", "!=", "<", ">", "<=", ">=", "in":
		return Undefined, c.inv.Fail("missing operand in condition")
	}

	e, err := c.inv.Compile(w)
	if err != nil || !eval {
		return Undefined, err
	}

	return e.Eval(c.inv.Data)
}
