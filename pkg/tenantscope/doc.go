// Package tenantscope provides a generic data-access guard for records that
// belong to exactly one shop. Every read is restricted to the bound tenant
// by a predicate the caller cannot remove, and every write overwrites the
// record's tenant id with the bound one, so a request scoped to one shop can
// neither observe nor mutate another shop's rows through this interface.
package tenantscope
