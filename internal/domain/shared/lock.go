package shared

// KeyLocker serializes critical sections identified by an arbitrary string
// key. Ingredients and customers are locked by their own keys so unrelated
// work never contends.
type KeyLocker interface {
	Lock(key string)
	Unlock(key string)
}
