package domain

// Optional distinguishes "field omitted" from "field explicitly set to null"
// in partial updates. The zero value is unset.
type Optional[T any] struct {
	set  bool
	null bool
	val  T
}

// Set returns an Optional holding a value.
func Set[T any](v T) Optional[T] {
	return Optional[T]{set: true, val: v}
}

// SetNull returns an Optional explicitly set to null.
func SetNull[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// IsSet reports whether the field was provided at all.
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was explicitly set to null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Value returns the held value. Only meaningful when IsSet and not IsNull.
func (o Optional[T]) Value() T { return o.val }

// Ptr returns the value as a pointer, nil when the Optional is null. Only
// meaningful when IsSet.
func (o Optional[T]) Ptr() *T {
	if o.null {
		return nil
	}
	v := o.val
	return &v
}

// Apply merges the Optional into a nullable field, leaving it untouched when
// the Optional is unset.
func (o Optional[T]) Apply(dst **T) {
	if !o.set {
		return
	}
	*dst = o.Ptr()
}
