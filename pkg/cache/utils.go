package cache

import "fmt"

// GenerateKey creates a cache key with namespace and ID.
func GenerateKey(namespace string, id string) string {
	return fmt.Sprintf("%s:%s", namespace, id)
}

// GenerateKeyWithParams creates a cache key with multiple parameters.
func GenerateKeyWithParams(namespace string, params ...interface{}) string {
	key := namespace
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}
