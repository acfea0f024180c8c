package domain

// Run is one recorded dispatch with its final accounting.
type Run struct {
	ID         string
	InputPath  string
	Concurrent bool
	Result     BatchResult
}
