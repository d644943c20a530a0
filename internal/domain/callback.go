package domain

// Callback receives the terminal result of a top-level call.
type Callback[T any] interface {
	OnFinished(result T)
	OnError(err error)
}

// ProgressCallback is the optional extension of a Callback that receives
// download percentages.
type ProgressCallback interface {
	OnDownloading(percentage int)
}

// ProgressOf returns the progress capability of cb, or nil
func ProgressOf(cb any) ProgressCallback {
	if cb == nil {
		return nil
	}
	if pc, ok := cb.(ProgressCallback); ok {
		return pc
	}
	return nil
}

// CallbackFuncs adapts plain functions to Callback. Nil fields are skipped.
type CallbackFuncs[T any] struct {
	Finished func(T)
	Error    func(error)
}

// OnFinished calls Finished
func (c CallbackFuncs[T]) OnFinished(result T) {
	if c.Finished != nil {
		c.Finished(result)
	}
}

// OnError calls Error
func (c CallbackFuncs[T]) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

// ProgressFuncs is CallbackFuncs with a progress hook.
type ProgressFuncs[T any] struct {
	CallbackFuncs[T]
	Downloading func(percentage int)
}

// OnDownloading calls Downloading
func (c ProgressFuncs[T]) OnDownloading(percentage int) {
	if c.Downloading != nil {
		c.Downloading(percentage)
	}
}
