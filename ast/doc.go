// Package ast defines the program tree the compiler backend consumes.
//
// The tree is produced by an external parser and semantic analyzer; this
// package only carries its shape. A Program holds module-level variable
// declarations and functions. Statement and expression nodes form two
// closed interface sets (Stmt and Expr) dispatched by type switch, so a
// consumer handling every kind is compiler-checked.
//
// All nodes serialize to and from JSON with a "kind" discriminator field,
// which is how the command-line tools exchange programs:
//
//	{
//	  "funcs": [{
//	    "name": "Add", "public": true, "result": "Long",
//	    "params": [{"name": "a", "type": "Long"}, {"name": "b", "type": "Long"}],
//	    "body": [{
//	      "kind": "return",
//	      "value": {
//	        "kind": "binary", "op": "+",
//	        "left": {"kind": "ident", "name": "a"},
//	        "right": {"kind": "ident", "name": "b"}
//	      }
//	    }]
//	  }]
//	}
//
// Trees decoded from JSON and trees built directly in Go are equivalent;
// the examples directory builds them in Go.
package ast
