package scheme

// Object must be implemented by every contract sent over the bus. Registry sets group and kind on registration,
// marshaller relies on them to restore the concrete type on the other side.
type Object interface {
	GroupKind() GroupKind
	SetGroupKind(gk *GroupKind)
}

// TypeMeta is embedded into contracts to implement Object
type TypeMeta struct {
	Kind  string `json:"kind,omitempty"`
	Group string `json:"group,omitempty"`
}

func (t TypeMeta) GroupKind() GroupKind {
	return GroupKind{Group: Group(t.Group), Kind: t.Kind}
}

func (t *TypeMeta) SetGroupKind(gk *GroupKind) {
	t.Group = gk.Group.String()
	t.Kind = gk.Kind
}
