package identmap

// IdentifierStep transforms one identifier on its way to the driver.
type IdentifierStep func(string) string

// ResponseStep transforms a query result on its way back to the caller.
type ResponseStep func(any) any

// IdentifierChain is an ordered list of identifier steps. Each step receives the
// output of the previous one.
type IdentifierChain []IdentifierStep

// Apply runs every step in order.
func (c IdentifierChain) Apply(identifier string) string {
	for _, step := range c {
		identifier = step(identifier)
	}
	return identifier
}

// Then returns a new chain with steps appended after c.
func (c IdentifierChain) Then(steps ...IdentifierStep) IdentifierChain {
	out := make(IdentifierChain, 0, len(c)+len(steps))
	out = append(out, c...)
	for _, s := range steps {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ResponseChain is an ordered list of response steps.
type ResponseChain []ResponseStep

// Apply runs every step in order.
func (c ResponseChain) Apply(result any) any {
	for _, step := range c {
		result = step(result)
	}
	return result
}

// Then returns a new chain with steps appended after c.
func (c ResponseChain) Then(steps ...ResponseStep) ResponseChain {
	out := make(ResponseChain, 0, len(c)+len(steps))
	out = append(out, c...)
	for _, s := range steps {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Hooks is the pair of chains installed on a connection.
type Hooks struct {
	Identifier IdentifierChain
	Response   ResponseChain
}

// Compose builds the hook chains for a connection.
//
// Custom hooks run first. When m is non-nil its formatting runs after the custom
// identifier hook (and before the driver quoting the caller appends), and its
// key parsing runs after the custom response hook.
func Compose(m *Mapper, customWrap IdentifierStep, customPost ResponseStep) Hooks {
	var h Hooks
	h.Identifier = h.Identifier.Then(customWrap)
	h.Response = h.Response.Then(customPost)
	if m != nil {
		h.Identifier = h.Identifier.Then(m.FormatIdentifier)
		h.Response = h.Response.Then(m.PostProcessResponse)
	}
	return h
}
