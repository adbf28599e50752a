package ftl

// Handler renders one tag occurrence.
type Handler interface {
	Render(b *Binding) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(b *Binding) (string, error)

// Render calls f(b).
func (f HandlerFunc) Render(b *Binding) (string, error) {
	return f(b)
}

// isNilHandler reports an untyped nil or a nil HandlerFunc.
func isNilHandler(h Handler) bool {
	if h == nil {
		return true
	}
	if fn, ok := h.(HandlerFunc); ok && fn == nil {
		return true
	}
	return false
}
