package kv

// Deterministic key namespaces. Emails and token ids never contain '/'
// (emails are validated at registration, ids are hex), so prefixes cannot
// collide across owners or tokens.
const (
	ownerPrefix     = "owner/"
	vaultPrefix     = "vault/"
	shareMetaPrefix = "share/meta/"
	shareDataPrefix = "share/data/"
)

// OwnerKey addresses the registry record for one owner.
func OwnerKey(email string) string {
	return ownerPrefix + email
}

// RecordKey addresses one encrypted vault record.
func RecordKey(email, recordID string) string {
	return vaultPrefix + email + "/" + recordID
}

// RecordPrefix enumerates all vault records of one owner.
func RecordPrefix(email string) string {
	return vaultPrefix + email + "/"
}

// ShareMetaKey addresses one share token's owner-visible metadata.
func ShareMetaKey(email, tokenID string) string {
	return shareMetaPrefix + email + "/" + tokenID
}

// ShareMetaPrefix enumerates all share metadata of one owner.
func ShareMetaPrefix(email string) string {
	return shareMetaPrefix + email + "/"
}

// ShareDataKey addresses a share payload blob by token id alone; a viewer
// needs no owner context to fetch it.
func ShareDataKey(tokenID string) string {
	return shareDataPrefix + tokenID
}
