package ast

import "fmt"

// DecodeBlock decodes a top-level block from its generic JSON
// representation. Scripts and test fixtures hand the interpreter a
// tree of map[string]any rather than source text, since producing
// that tree from Lua source is outside this package's concern.
func DecodeBlock(raw map[string]any) (*Block, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	block, ok := node.(*Block)
	if !ok {
		return nil, fmt.Errorf("ast: expected Block at top level, got %T", node)
	}
	return block, nil
}

func decodeNode(raw map[string]any) (Node, error) {
	if raw == nil {
		return nil, fmt.Errorf("ast: nil node")
	}
	kind, ok := raw["type"].(string)
	if !ok {
		return nil, fmt.Errorf("ast: node missing string \"type\" field: %v", raw)
	}

	switch NodeType(kind) {
	case NodeNilLiteral:
		return NewNilLiteral(), nil
	case NodeBoolLiteral:
		v, err := boolField(raw, "value")
		if err != nil {
			return nil, err
		}
		return NewBoolLiteral(v), nil
	case NodeNumberLiteral:
		v, err := numberField(raw, "value")
		if err != nil {
			return nil, err
		}
		return NewNumberLiteral(v), nil
	case NodeStringLiteral:
		v, err := stringField(raw, "value")
		if err != nil {
			return nil, err
		}
		return NewStringLiteral(v), nil
	case NodeVarargsLiteral:
		return NewVarargsLiteral(), nil
	case NodeVariable:
		prefix, err := optionalExpression(raw, "prefix")
		if err != nil {
			return nil, err
		}
		name, err := stringField(raw, "name")
		if err != nil {
			return nil, err
		}
		return NewVariable(prefix, name), nil
	case NodeTableAccess:
		expr, err := expressionField(raw, "expr")
		if err != nil {
			return nil, err
		}
		index, err := expressionField(raw, "index")
		if err != nil {
			return nil, err
		}
		return NewTableAccess(expr, index), nil
	case NodeFunctionCall:
		callee, err := expressionField(raw, "callee")
		if err != nil {
			return nil, err
		}
		args, err := expressionListField(raw, "args")
		if err != nil {
			return nil, err
		}
		return NewFunctionCall(callee, args), nil
	case NodeBinaryExpression:
		opStr, err := stringField(raw, "operator")
		if err != nil {
			return nil, err
		}
		left, err := expressionField(raw, "left")
		if err != nil {
			return nil, err
		}
		right, err := expressionField(raw, "right")
		if err != nil {
			return nil, err
		}
		return NewBinaryExpression(BinaryOp(opStr), left, right), nil
	case NodeUnaryExpression:
		opStr, err := stringField(raw, "operator")
		if err != nil {
			return nil, err
		}
		expr, err := expressionField(raw, "expr")
		if err != nil {
			return nil, err
		}
		return NewUnaryExpression(UnaryOp(opStr), expr), nil
	case NodeFunctionDef:
		params, err := stringListField(raw, "params")
		if err != nil {
			return nil, err
		}
		vararg, _ := boolField(raw, "is_vararg")
		body, err := blockField(raw, "body")
		if err != nil {
			return nil, err
		}
		return NewFunctionDefinition(params, vararg, body), nil
	case NodeTableConstructor:
		fieldsRaw, ok := raw["fields"].([]any)
		if !ok {
			return nil, fmt.Errorf("ast: TableConstructor missing \"fields\" list")
		}
		fields := make([]TableField, 0, len(fieldsRaw))
		for _, fr := range fieldsRaw {
			fm, ok := fr.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: table field must be an object")
			}
			var key Expression
			if kv, present := fm["key"]; present && kv != nil {
				km, ok := kv.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("ast: table field key must be a node")
				}
				var err error
				key, err = decodeExpression(km)
				if err != nil {
					return nil, err
				}
			}
			value, err := expressionField(fm, "value")
			if err != nil {
				return nil, err
			}
			fields = append(fields, TableField{Key: key, Value: value})
		}
		return NewTableConstructor(fields), nil

	case NodeAssignment:
		targetsRaw, ok := raw["targets"].([]any)
		if !ok {
			return nil, fmt.Errorf("ast: Assignment missing \"targets\" list")
		}
		targets := make([]Assignable, 0, len(targetsRaw))
		for _, tr := range targetsRaw {
			tm, ok := tr.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: assignment target must be an object")
			}
			expr, err := decodeExpression(tm)
			if err != nil {
				return nil, err
			}
			target, ok := expr.(Assignable)
			if !ok {
				return nil, fmt.Errorf("ast: assignment target of type %T is not assignable", expr)
			}
			targets = append(targets, target)
		}
		values, err := expressionListField(raw, "values")
		if err != nil {
			return nil, err
		}
		return NewAssignment(targets, values), nil
	case NodeLocalAssignment:
		names, err := stringListField(raw, "names")
		if err != nil {
			return nil, err
		}
		values, err := expressionListField(raw, "values")
		if err != nil {
			return nil, err
		}
		return NewLocalAssignment(names, values), nil
	case NodeReturnStat:
		values, err := expressionListField(raw, "values")
		if err != nil {
			return nil, err
		}
		return NewReturnStat(values), nil
	case NodeBreakStat:
		return NewBreakStat(), nil
	case NodeBlock:
		stmtsRaw, ok := raw["stmts"].([]any)
		if !ok {
			return nil, fmt.Errorf("ast: Block missing \"stmts\" list")
		}
		stmts := make([]Statement, 0, len(stmtsRaw))
		for _, sr := range stmtsRaw {
			sm, ok := sr.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: statement must be an object")
			}
			node, err := decodeNode(sm)
			if err != nil {
				return nil, err
			}
			stmt, ok := node.(Statement)
			if !ok {
				return nil, fmt.Errorf("ast: node of type %T is not a statement", node)
			}
			stmts = append(stmts, stmt)
		}
		return NewBlock(stmts), nil
	case NodeIfStat:
		cond, err := expressionField(raw, "cond")
		if err != nil {
			return nil, err
		}
		then, err := blockField(raw, "then")
		if err != nil {
			return nil, err
		}
		var elseifs []CondBlock
		if rawList, ok := raw["elseifs"].([]any); ok {
			for _, er := range rawList {
				em, ok := er.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("ast: elseif entry must be an object")
				}
				c, err := expressionField(em, "cond")
				if err != nil {
					return nil, err
				}
				b, err := blockField(em, "block")
				if err != nil {
					return nil, err
				}
				elseifs = append(elseifs, CondBlock{Cond: c, Block: b})
			}
		}
		var elseBlock *Block
		if ev, present := raw["else"]; present && ev != nil {
			em, ok := ev.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("ast: \"else\" must be a Block node")
			}
			elseBlock, err = decodeBlockNode(em)
			if err != nil {
				return nil, err
			}
		}
		return NewIfStat(cond, then, elseifs, elseBlock), nil
	case NodeWhileStat:
		cond, err := expressionField(raw, "cond")
		if err != nil {
			return nil, err
		}
		block, err := blockField(raw, "block")
		if err != nil {
			return nil, err
		}
		return NewWhileStat(cond, block), nil
	case NodeRepeatStat:
		block, err := blockField(raw, "block")
		if err != nil {
			return nil, err
		}
		cond, err := expressionField(raw, "cond")
		if err != nil {
			return nil, err
		}
		return NewRepeatStat(block, cond), nil
	case NodeNumericFor:
		v, err := stringField(raw, "var")
		if err != nil {
			return nil, err
		}
		start, err := expressionField(raw, "start")
		if err != nil {
			return nil, err
		}
		limit, err := expressionField(raw, "limit")
		if err != nil {
			return nil, err
		}
		step, err := optionalExpression(raw, "step")
		if err != nil {
			return nil, err
		}
		block, err := blockField(raw, "block")
		if err != nil {
			return nil, err
		}
		return NewNumericFor(v, start, limit, step, block), nil
	case NodeGenericFor:
		vars, err := stringListField(raw, "vars")
		if err != nil {
			return nil, err
		}
		exprs, err := expressionListField(raw, "exprs")
		if err != nil {
			return nil, err
		}
		block, err := blockField(raw, "block")
		if err != nil {
			return nil, err
		}
		return NewGenericFor(vars, exprs, block), nil
	default:
		return nil, fmt.Errorf("ast: unknown node type %q", kind)
	}
}

func decodeExpression(raw map[string]any) (Expression, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(Expression)
	if !ok {
		return nil, fmt.Errorf("ast: node of type %T is not an expression", node)
	}
	return expr, nil
}

func decodeBlockNode(raw map[string]any) (*Block, error) {
	node, err := decodeNode(raw)
	if err != nil {
		return nil, err
	}
	block, ok := node.(*Block)
	if !ok {
		return nil, fmt.Errorf("ast: expected Block, got %T", node)
	}
	return block, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key].(string)
	if !ok {
		return "", fmt.Errorf("ast: field %q must be a string", key)
	}
	return v, nil
}

func boolField(raw map[string]any, key string) (bool, error) {
	v, ok := raw[key].(bool)
	if !ok {
		return false, fmt.Errorf("ast: field %q must be a bool", key)
	}
	return v, nil
}

func numberField(raw map[string]any, key string) (float64, error) {
	switch v := raw[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("ast: field %q must be a number", key)
	}
}

func expressionField(raw map[string]any, key string) (Expression, error) {
	m, ok := raw[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: field %q must be a node", key)
	}
	return decodeExpression(m)
}

func optionalExpression(raw map[string]any, key string) (Expression, error) {
	v, present := raw[key]
	if !present || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: field %q must be a node", key)
	}
	return decodeExpression(m)
}

func blockField(raw map[string]any, key string) (*Block, error) {
	m, ok := raw[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("ast: field %q must be a Block node", key)
	}
	return decodeBlockNode(m)
}

func expressionListField(raw map[string]any, key string) ([]Expression, error) {
	listRaw, present := raw[key]
	if !present || listRaw == nil {
		return nil, nil
	}
	list, ok := listRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("ast: field %q must be a list", key)
	}
	out := make([]Expression, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ast: element of %q must be a node", key)
		}
		expr, err := decodeExpression(m)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func stringListField(raw map[string]any, key string) ([]string, error) {
	listRaw, present := raw[key]
	if !present || listRaw == nil {
		return nil, nil
	}
	list, ok := listRaw.([]any)
	if !ok {
		return nil, fmt.Errorf("ast: field %q must be a list", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("ast: element of %q must be a string", key)
		}
		out = append(out, s)
	}
	return out, nil
}
