package domain

import "sort"

// PermissionSet is an order-insensitive set of permission identifiers,
// persisted as a JSON array.
type PermissionSet []string

// NormalizePermissions sorts and de-duplicates a permission list.
func NormalizePermissions(perms []string) PermissionSet {
	if len(perms) == 0 {
		return PermissionSet{}
	}
	seen := make(map[string]struct{}, len(perms))
	out := make(PermissionSet, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the set holds the given permission.
func (s PermissionSet) Contains(perm string) bool {
	for _, p := range s {
		if p == perm {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every permission in s appears in other.
func (s PermissionSet) SubsetOf(other PermissionSet) bool {
	for _, p := range s {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Equal reports set equality assuming both sides are normalized.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
