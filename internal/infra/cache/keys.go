package cache

import "fmt"

const (
	// Cart lock: lock:{tenant}:{cartId} -> random token
	keyCartLock = "lock:%s:%s"

	// Idempotency record: idemp:{tenant}:{key} -> JSON record
	keyIdempotency = "idemp:%s:%s"

	// Read-cache version counters bumped after a committed order
	keyProductsVersion   = "cachever:%s:products"
	keyCategoriesVersion = "cachever:%s:categories"

	// Cached cart document: cart:{tenant}:{cartId}
	keyCart = "cart:%s:%s"
)

func CartLockKey(tenantID, cartID string) string {
	return fmt.Sprintf(keyCartLock, tenantID, cartID)
}

func IdempotencyKey(tenantID, key string) string {
	return fmt.Sprintf(keyIdempotency, tenantID, key)
}

func ProductsVersionKey(tenantID string) string {
	return fmt.Sprintf(keyProductsVersion, tenantID)
}

func CategoriesVersionKey(tenantID string) string {
	return fmt.Sprintf(keyCategoriesVersion, tenantID)
}

func CartKey(tenantID, cartID string) string {
	return fmt.Sprintf(keyCart, tenantID, cartID)
}
