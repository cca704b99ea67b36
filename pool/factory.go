package pool

// Factory creates and manages the lifecycle of the values an ObjectPool
// lends out. It is the sole external collaborator the core coordinator
// depends on (spec §1: "out of scope... the user-supplied factory").
// Implementations must be safe for concurrent use; the coordinator never
// calls into a Factory while holding a lock a borrower or returner needs
// (invariant 5).
type Factory[T any] interface {
	// Make creates a new instance. Returning an error aborts the create
	// attempt; the pool's createCount accounting is rolled back.
	Make() (T, error)

	// Destroy releases any resources held by value. Errors are swallowed
	// by most pool housekeeping paths (clear, return overflow, evictor)
	// and propagated only from an explicit InvalidateObject (spec §7).
	Destroy(value T) error

	// Validate reports whether value is still usable. A false return or
	// an error both mean "invalid" to the pool.
	Validate(value T) (bool, error)

	// Activate prepares value for use just before it leaves the idle
	// deque. An error here causes the pool to destroy the member.
	Activate(value T) error

	// Passivate prepares value for storage just before it enters the idle
	// deque. An error here causes the pool to destroy the member.
	Passivate(value T) error
}
