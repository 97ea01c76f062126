package convert

// Progress receives the amount of work done by a tool. Add may be called
// from several goroutines.
type Progress interface {
	// Start announces the total amount of work.
	Start(total int64)
	// Add reports n more units done.
	Add(n int64)
	// Finish is called once the tool is done.
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int64) {}
func (nopProgress) Add(int64)   {}
func (nopProgress) Finish()     {}
