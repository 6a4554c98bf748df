package compiler

import "sort"

// SymbolTable tracks declared variable names. Names declared while a
// program is being compiled stay pending until the program compiles
// successfully, so a failed compile leaves the table unchanged.
type SymbolTable struct {
	committed map[string]bool
	pending   map[string]bool
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		committed: map[string]bool{},
		pending:   map[string]bool{},
	}
}

// InsertVariable declares a name. It is a no-op if the name is already
// declared.
func (t *SymbolTable) InsertVariable(name string) {
	if t.committed[name] {
		return
	}
	t.pending[name] = true
}

// IsDefined reports whether the name is declared, pending or committed.
func (t *SymbolTable) IsDefined(name string) bool {
	return t.committed[name] || t.pending[name]
}

// Commit makes all pending declarations permanent.
func (t *SymbolTable) Commit() {
	for name := range t.pending {
		t.committed[name] = true
	}
	t.pending = map[string]bool{}
}

// Rollback discards all pending declarations.
func (t *SymbolTable) Rollback() {
	t.pending = map[string]bool{}
}

// Clear removes every declaration.
func (t *SymbolTable) Clear() {
	t.committed = map[string]bool{}
	t.pending = map[string]bool{}
}

// AllNames returns the sorted names of all declared variables.
func (t *SymbolTable) AllNames() []string {
	names := make([]string, 0, len(t.committed)+len(t.pending))
	for name := range t.committed {
		names = append(names, name)
	}
	for name := range t.pending {
		if !t.committed[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the number of declared variables.
func (t *SymbolTable) Count() int {
	return len(t.AllNames())
}
