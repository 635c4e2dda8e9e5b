package analyze

// Catalog flattens the members of named types as seen from one package.
//
// A type's own members come first, then the members promoted from embedded
// types in breadth-first order. When several members share a name the one
// closest to the type wins; if more than one sits at that closest depth the
// name is ambiguous (as a Go selector would be) and dropped.
type Catalog struct {
	src       TypeSource
	accessPkg string
}

// NewCatalog creates a Catalog whose accessibility flags are computed for
// code living in package accessPkg.
func NewCatalog(src TypeSource, accessPkg string) *Catalog {
	return &Catalog{src: src, accessPkg: accessPkg}
}

// Members returns the flattened members of ref. Each name appears at most once.
func (c *Catalog) Members(ref TypeRef) []MemberRef {
	type entry struct {
		member MemberRef
		count  int
	}

	var order []string

	entries := make(map[string]*entry)

	add := func(m MemberRef) {
		e, ok := entries[m.Name]
		if !ok {
			entries[m.Name] = &entry{member: m, count: 1}
			order = append(order, m.Name)

			return
		}

		if m.Depth == e.member.Depth {
			e.count++
		}
	}

	for _, m := range c.src.OwnMembers(ref) {
		add(m)
	}

	for _, anc := range c.src.FlattenAncestors(ref) {
		for _, m := range c.src.OwnMembers(anc.Type) {
			m.Depth = anc.Depth
			m.ViaPointer = anc.ViaPointer
			add(m)
		}
	}

	members := make([]MemberRef, 0, len(order))

	for _, name := range order {
		e := entries[name]
		if e.count > 1 {
			continue
		}

		members = append(members, c.withAccess(e.member))
	}

	return members
}

// Lookup returns the flattened member of ref called name.
func (c *Catalog) Lookup(ref TypeRef, name string) (MemberRef, bool) {
	for _, m := range c.Members(ref) {
		if m.Name == name {
			return m, true
		}
	}

	return MemberRef{}, false
}

// Names returns the names of ref's flattened members, in order.
func (c *Catalog) Names(ref TypeRef) []string {
	members := c.Members(ref)

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}

	return names
}

// Mutable returns the members of ref that can be assigned on a zero value.
func (c *Catalog) Mutable(ref TypeRef) []MemberRef {
	var out []MemberRef

	for _, m := range c.Members(ref) {
		if m.Mutable {
			out = append(out, m)
		}
	}

	return out
}

func (c *Catalog) withAccess(m MemberRef) MemberRef {
	accessible := m.Exported || m.PkgPath == c.accessPkg

	m.Readable = accessible && (m.Kind == MemberField || m.Getter)
	m.Mutable = accessible && m.Kind == MemberField && !m.ViaPointer

	return m
}
