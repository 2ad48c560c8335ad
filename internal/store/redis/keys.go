package redis

import "fmt"

const (
	// KeyPrefixAudit is the prefix for per-category audit lists
	KeyPrefixAudit = "shelf:audit:"
	// KeyAuditCategories is the set of categories that have an audit list
	KeyAuditCategories = "shelf:audit-categories"
)

// AuditKey returns the Redis key of a category's audit list
func AuditKey(category string) string {
	return KeyPrefixAudit + category
}

// AuditCategoriesKey returns the key for the set of audited categories
func AuditCategoriesKey() string {
	return KeyAuditCategories
}

// ExtractCategory extracts the category name from an audit key
func ExtractCategory(key string) (string, error) {
	if len(key) <= len(KeyPrefixAudit) || key[:len(KeyPrefixAudit)] != KeyPrefixAudit {
		return "", fmt.Errorf("invalid audit key: %s", key)
	}
	return key[len(KeyPrefixAudit):], nil
}
