package hookstage

// ChangeSet holds a list of mutations the hook wants to apply to the payload.
// Mutations are applied in the order they were added.
type ChangeSet[T any] struct {
	mutations []Mutation[T]
}

func (c *ChangeSet[T]) Mutations() []Mutation[T] {
	return c.mutations
}

// AddMutation adds a new mutation to the change set.
// The caller provides a human-readable key path describing the mutated field.
func (c *ChangeSet[T]) AddMutation(fn MutationFunc[T], t MutationType, key ...string) *ChangeSet[T] {
	c.mutations = append(c.mutations, Mutation[T]{fn: fn, t: t, key: key})
	return c
}

// MutationFunc defines the function contract used to modify payload.
type MutationFunc[T any] func(T) (T, error)

type Mutation[T any] struct {
	fn  MutationFunc[T]
	t   MutationType
	key []string
}

func (m Mutation[T]) Type() MutationType {
	return m.t
}

func (m Mutation[T]) Key() []string {
	return m.key
}

func (m Mutation[T]) Apply(p T) (T, error) {
	return m.fn(p)
}

type MutationType string

const (
	MutationAdd    MutationType = "add"
	MutationUpdate MutationType = "update"
	MutationDelete MutationType = "delete"
)
