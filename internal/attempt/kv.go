package attempt

// KeyValueStore is the durable storage the timer keeps its deadline in, so
// that a reload or restart resumes the same countdown instead of granting
// fresh time. Get returns an empty string for a missing key.
type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
