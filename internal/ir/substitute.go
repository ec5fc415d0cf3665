package ir

// substituteVar replaces every occurrence of the free variable name
// within in with value, sharing work across the DAG via an
// identity-keyed memo table. It does not descend into value itself.
func substituteVar(name string, value Expr, in Expr) Expr {
	memo := make(map[Expr]Expr)
	return MutateExprPre(in, memo, func(e Expr) (Expr, bool) {
		if v, ok := e.(*Var); ok && v.Name == name {
			return value, true
		}
		return nil, false
	})
}

// Substitute replaces free occurrences of name with value throughout
// expr e. It is the Expr-level building block the outer driver uses
// to substitute loop_min for the induction variable in a scratch
// allocation's preamble.
func Substitute(name string, value Expr, e Expr) Expr {
	return substituteVar(name, value, e)
}

// SubstituteStmt replaces free occurrences of name with value
// throughout statement s, respecting shadowing: substitution stops
// inside a LetStmt or For that rebinds name.
func SubstituteStmt(name string, value Expr, s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *Store:
		return &Store{
			Buffer:    n.Buffer,
			Index:     substituteVar(name, value, n.Index),
			Value:     substituteVar(name, value, n.Value),
			Predicate: substituteVar(name, value, n.Predicate),
		}
	case *LetStmt:
		newValue := substituteVar(name, value, n.Value)
		newBody := n.Body
		if n.Name != name {
			newBody = SubstituteStmt(name, value, n.Body)
		}
		return &LetStmt{Name: n.Name, Value: newValue, Body: newBody}
	case *Block:
		return &Block{First: SubstituteStmt(name, value, n.First), Rest: SubstituteStmt(name, value, n.Rest)}
	case *For:
		newBody := n.Body
		if n.Var != name {
			newBody = SubstituteStmt(name, value, n.Body)
		}
		return &For{
			Var: n.Var, Min: substituteVar(name, value, n.Min), Extent: substituteVar(name, value, n.Extent),
			ForType: n.ForType, Device: n.Device, Body: newBody,
		}
	case *IfThenElse:
		return &IfThenElse{
			Cond: substituteVar(name, value, n.Cond),
			Then: SubstituteStmt(name, value, n.Then),
			Else: SubstituteStmt(name, value, n.Else),
		}
	case *ProducerConsumer:
		return &ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: SubstituteStmt(name, value, n.Body)}
	case *Allocate:
		newExtents := make([]Expr, len(n.Extents))
		for i, ex := range n.Extents {
			newExtents[i] = substituteVar(name, value, ex)
		}
		return &Allocate{
			Name: n.Name, ElemType: n.ElemType, Kind: n.Kind, Extents: newExtents,
			Condition: substituteVar(name, value, n.Condition), Body: SubstituteStmt(name, value, n.Body),
		}
	default:
		return s
	}
}

// SubstituteInAllLetsExpr inlines every expression-level Let within e,
// producing a form where every let-bound name has been replaced by
// its value — revealing any sharing that was expressed implicitly via
// those bindings.
func SubstituteInAllLetsExpr(e Expr) Expr {
	memo := make(map[Expr]Expr)
	return MutateExprPost(e, memo, func(n Expr) Expr {
		if let, ok := n.(*Let); ok {
			return substituteVar(let.Name, let.Value, let.Body)
		}
		return n
	})
}

// SubstituteInAllLets inlines every LetStmt and expression-level Let
// reachable from s, so that every subsequent traversal of the result
// can use graph-aware (identity-based) operations instead of a
// structural walk.
func SubstituteInAllLets(s Stmt) Stmt {
	switch n := s.(type) {
	case nil:
		return nil
	case *Store:
		return &Store{
			Buffer:    n.Buffer,
			Index:     SubstituteInAllLetsExpr(n.Index),
			Value:     SubstituteInAllLetsExpr(n.Value),
			Predicate: SubstituteInAllLetsExpr(n.Predicate),
		}
	case *LetStmt:
		newValue := SubstituteInAllLetsExpr(n.Value)
		newBody := SubstituteInAllLets(n.Body)
		return SubstituteStmt(n.Name, newValue, newBody)
	case *Block:
		return &Block{First: SubstituteInAllLets(n.First), Rest: SubstituteInAllLets(n.Rest)}
	case *For:
		return &For{
			Var: n.Var, Min: SubstituteInAllLetsExpr(n.Min), Extent: SubstituteInAllLetsExpr(n.Extent),
			ForType: n.ForType, Device: n.Device, Body: SubstituteInAllLets(n.Body),
		}
	case *IfThenElse:
		return &IfThenElse{
			Cond: SubstituteInAllLetsExpr(n.Cond),
			Then: SubstituteInAllLets(n.Then),
			Else: SubstituteInAllLets(n.Else),
		}
	case *ProducerConsumer:
		return &ProducerConsumer{Name: n.Name, IsProducer: n.IsProducer, Body: SubstituteInAllLets(n.Body)}
	case *Allocate:
		newExtents := make([]Expr, len(n.Extents))
		for i, ex := range n.Extents {
			newExtents[i] = SubstituteInAllLetsExpr(ex)
		}
		return &Allocate{
			Name: n.Name, ElemType: n.ElemType, Kind: n.Kind, Extents: newExtents,
			Condition: SubstituteInAllLetsExpr(n.Condition), Body: SubstituteInAllLets(n.Body),
		}
	default:
		return s
	}
}
