// Package override turns the user's ForMember function literals into
// relocatable expressions.
//
// The target selector must be a one-parameter literal returning a member of
// its argument. The value literal takes the source value and, optionally, a
// context value, and its body must be a single return statement. The returned
// expression is rewritten on a re-parsed copy: uses of the parameters become
// placeholders that the generator later replaces with its own parameter
// names, and references to other packages are re-qualified through package
// placeholders so the expression no longer depends on the imports of the file
// it was written in.
package override
